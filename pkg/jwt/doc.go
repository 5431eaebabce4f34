// Package jwt issues and verifies the bearer tokens the API accepts.
//
// Tokens are HS256 signed with a shared secret. The subject is the user ID
// and a "role" claim carries the user's role:
//
//	svc, err := jwt.NewService(jwt.Config{Secret: secret, Issuer: "arena", Expiration: time.Hour})
//	token, err := svc.Sign(userID, "organizer")
//	claims, err := svc.Verify(token)
//
// Verification failures are reported as ErrTokenExpired, ErrInvalidSignature
// or ErrInvalidToken.
package jwt
