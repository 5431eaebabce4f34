// Package service implements the competition application and team formation
// workflow.
//
// Four parts live here:
//
//   - Eligibility (eligibility.go): pure functions deciding a competition's
//     phase, whether an applicant may enter and whether capacity is reached
//   - Transitions (transitions.go): the application status table keyed by
//     current status, target status and acting role
//   - Services (competition.go, application.go, team.go, team_formation.go):
//     one service per aggregate, each declaring the repository interface it needs
//   - Workflow (workflow.go): the entry point handlers and jobs call. It owns
//     authorization by role and turns every error into a *Failure
//
// # Service Pattern
//
// Each service is built from a config struct:
//
//	svc := NewTeamService(TeamServiceConfig{
//	    TeamRepo:        teamRepository,
//	    ApplicationRepo: applicationRepository,
//	    UserRepo:        userRepository,
//	})
//
// Repositories return nil, nil when a row does not exist. Uniqueness
// violations come back as database.ErrDuplicate and lost conditional
// writes as database.ErrConflict; services translate both into the
// sentinels in errors.go.
//
// # Failures
//
// Callers outside this package only see *Failure values. Kind is a closed
// set; Message is safe to show to an end user and never carries store detail.
//
//	if _, err := wf.SubmitApplication(ctx, userID, competitionID, req); err != nil {
//	    var f *service.Failure
//	    if errors.As(err, &f) && f.Kind == service.KindDuplicateApplication {
//	        ...
//	    }
//	}
package service
