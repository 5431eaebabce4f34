package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sportfed/arena/internal/config"
	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/pkg/jwt"
)

func main() {
	// Flags for customization
	userID := flag.String("user", "", "User ID for the token (required)")
	role := flag.String("role", string(model.UserRoleParticipant), "Role claim: participant, organizer or admin")
	expMins := flag.Int("exp", 60*24, "Token expiration in minutes (default: 1 day)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		flag.Usage()
		os.Exit(2)
	}
	switch model.UserRole(*role) {
	case model.UserRoleParticipant, model.UserRoleOrganizer, model.UserRoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown role %q\n", *role)
		os.Exit(2)
	}

	// Secret and issuer come from the same env/.env as the server
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	expiration := time.Duration(*expMins) * time.Minute
	tokens, err := jwt.NewService(jwt.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: expiration,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nSet JWT_SECRET to at least 32 bytes.\n")
		os.Exit(1)
	}

	token, err := tokens.Sign(*userID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	fmt.Println("Token Issued")
	fmt.Println("============")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Role:     %s\n", *role)
	fmt.Printf("Expires:  %s\n", time.Now().Add(expiration).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H 'Authorization: Bearer <token>' http://localhost:8080/v1/teams/mine")
}
