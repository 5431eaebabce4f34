package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/internal/service"
)

// UserStore is the user write access fixtures need. Every store's
// UserRepository satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
}

// Repos are the stores fixtures write through
type Repos struct {
	Users        UserStore
	Competitions service.CompetitionRepository
	Teams        service.TeamRepository
	Applications service.ApplicationRepository
}

// Factory creates test entities in a store
type Factory struct {
	repos Repos
	now   func() time.Time
}

// New creates a new fixture factory. Competition windows are laid out
// around now.
func New(repos Repos, now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{repos: repos, now: now}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	FullName string
	Email    string
	RegionID *string
	Role     model.UserRole
}

// WithRegion places the user in a region
func WithRegion(regionID string) func(*UserOpts) {
	return func(o *UserOpts) { o.RegionID = &regionID }
}

// CreateUser creates a participant with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	id := randomID()
	o := &UserOpts{
		FullName: "User " + id,
		Email:    fmt.Sprintf("user_%s@test.local", id),
		Role:     model.UserRoleParticipant,
	}
	for _, fn := range opts {
		fn(o)
	}

	user := &model.User{
		FullName: o.FullName,
		Email:    o.Email,
		RegionID: o.RegionID,
		Role:     o.Role,
	}

	c, cancel := ctx()
	defer cancel()
	if err := f.repos.Users.Create(c, user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// CreateOrganizer creates a user allowed to organize competitions
func (f *Factory) CreateOrganizer(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleOrganizer
	})
}

// ============================================================================
// Competition Fixtures
// ============================================================================

// CompetitionOpts customizes competition creation
type CompetitionOpts struct {
	Name     string
	Type     model.CompetitionType
	RegionID *string
	Capacity *int
	Status   model.CompetitionStatus
	// Registration opens this long before now and closes this long after it
	OpenedAgo  time.Duration
	ClosesIn   time.Duration
	EventAfter time.Duration
	EventLasts time.Duration
}

// WithCapacity caps approved entries
func WithCapacity(n int) func(*CompetitionOpts) {
	return func(o *CompetitionOpts) { o.Capacity = &n }
}

// Regional makes the competition regional to regionID
func Regional(regionID string) func(*CompetitionOpts) {
	return func(o *CompetitionOpts) {
		o.Type = model.CompetitionTypeRegional
		o.RegionID = &regionID
	}
}

// RegistrationClosed moves the registration window into the past
func RegistrationClosed() func(*CompetitionOpts) {
	return func(o *CompetitionOpts) {
		o.OpenedAgo = 10 * 24 * time.Hour
		o.ClosesIn = -24 * time.Hour
	}
}

// CreateCompetition creates a published competition whose registration is open
func (f *Factory) CreateCompetition(t *testing.T, organizer *model.User, opts ...func(*CompetitionOpts)) *model.Competition {
	t.Helper()

	o := &CompetitionOpts{
		Name:       "Cup " + randomID(),
		Type:       model.CompetitionTypeOpen,
		Status:     model.CompetitionStatusPublished,
		OpenedAgo:  24 * time.Hour,
		ClosesIn:   5 * 24 * time.Hour,
		EventAfter: 3 * 24 * time.Hour,
		EventLasts: 2 * 24 * time.Hour,
	}
	for _, fn := range opts {
		fn(o)
	}

	now := f.now().UTC().Truncate(time.Second)
	regEnd := now.Add(o.ClosesIn)
	c := &model.Competition{
		Name:                   o.Name,
		DisciplineID:           "football",
		RegionID:               o.RegionID,
		Type:                   o.Type,
		MaxParticipantsOrTeams: o.Capacity,
		RegistrationStart:      now.Add(-o.OpenedAgo),
		RegistrationEnd:        regEnd,
		Start:                  regEnd.Add(o.EventAfter),
		End:                    regEnd.Add(o.EventAfter + o.EventLasts),
		Status:                 o.Status,
		OrganizerUserID:        organizer.ID,
	}

	cx, cancel := ctx()
	defer cancel()
	if err := f.repos.Competitions.Create(cx, c); err != nil {
		t.Fatalf("fixtures: failed to create competition: %v", err)
	}
	return c
}

// ============================================================================
// Team Fixtures
// ============================================================================

// CreateTeam creates a team captained by captain
func (f *Factory) CreateTeam(t *testing.T, captain *model.User) *model.Team {
	t.Helper()

	team := &model.Team{Name: "Team " + randomID(), CaptainUserID: captain.ID}

	c, cancel := ctx()
	defer cancel()
	if err := f.repos.Teams.Create(c, team); err != nil {
		t.Fatalf("fixtures: failed to create team: %v", err)
	}
	return team
}

// AddMember puts user on team's roster
func (f *Factory) AddMember(t *testing.T, team *model.Team, user *model.User) *model.TeamMember {
	t.Helper()

	member := &model.TeamMember{TeamID: team.ID, UserID: user.ID}

	c, cancel := ctx()
	defer cancel()
	if err := f.repos.Teams.AddMember(c, member); err != nil {
		t.Fatalf("fixtures: failed to add team member: %v", err)
	}
	return member
}

// ============================================================================
// Application Fixtures
// ============================================================================

// CreateIndividualApplication stores a pending individual application,
// bypassing eligibility checks
func (f *Factory) CreateIndividualApplication(t *testing.T, c *model.Competition, user *model.User) *model.Application {
	t.Helper()

	return f.createApplication(t, &model.Application{
		CompetitionID:   c.ID,
		Type:            model.ApplicationTypeIndividual,
		ApplicantUserID: &user.ID,
		Status:          model.ApplicationStatusPending,
	})
}

// CreateFormingApplication stores a forming team application advertising info
func (f *Factory) CreateFormingApplication(t *testing.T, c *model.Competition, team *model.Team, info *model.RecruitingInfo) *model.Application {
	t.Helper()

	if info == nil {
		info = &model.RecruitingInfo{}
	}
	return f.createApplication(t, &model.Application{
		CompetitionID:   c.ID,
		Type:            model.ApplicationTypeTeam,
		ApplicantTeamID: &team.ID,
		Status:          model.ApplicationStatusForming,
		Recruiting:      info,
	})
}

func (f *Factory) createApplication(t *testing.T, app *model.Application) *model.Application {
	t.Helper()

	c, cancel := ctx()
	defer cancel()
	if err := f.repos.Applications.Create(c, app); err != nil {
		t.Fatalf("fixtures: failed to create application: %v", err)
	}
	return app
}
