// Package memory is a thread-safe in-memory entity store. It enforces the
// same uniqueness rules as the SurrealDB and PostgreSQL stores and is used
// for local development (STORE_DRIVER=memory) and service tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sportfed/arena/internal/model"
)

// Store holds every entity behind a single mutex
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[string]model.User
	competitions map[string]model.Competition
	teams        map[string]model.Team
	members      map[string]model.TeamMember
	applications map[string]model.Application
	joinRequests map[string]model.JoinRequest
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		users:        make(map[string]model.User),
		competitions: make(map[string]model.Competition),
		teams:        make(map[string]model.Team),
		members:      make(map[string]model.TeamMember),
		applications: make(map[string]model.Application),
		joinRequests: make(map[string]model.JoinRequest),
	}
}

// SetClock overrides the timestamp source used for created/updated fields
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutUser inserts or replaces a user. Users are owned by the identity
// provider, so this is only used for seeding.
func (s *Store) PutUser(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedOn.IsZero() {
		u.CreatedOn = s.now()
	}
	s.users[u.ID] = u
	return cloneUser(u)
}

// Repositories bundles one repository per entity over a shared store
type Repositories struct {
	Users        *UserRepository
	Competitions *CompetitionRepository
	Teams        *TeamRepository
	Applications *ApplicationRepository
	JoinRequests *JoinRequestRepository
}

// NewRepositories wires every repository to s
func NewRepositories(s *Store) *Repositories {
	return &Repositories{
		Users:        &UserRepository{s: s},
		Competitions: &CompetitionRepository{s: s},
		Teams:        &TeamRepository{s: s},
		Applications: &ApplicationRepository{s: s},
		JoinRequests: &JoinRequestRepository{s: s},
	}
}

func newID() string {
	return uuid.NewString()
}

func cloneUser(u model.User) *model.User {
	if u.RegionID != nil {
		r := *u.RegionID
		u.RegionID = &r
	}
	return &u
}

func cloneCompetition(c model.Competition) *model.Competition {
	if c.Description != nil {
		d := *c.Description
		c.Description = &d
	}
	if c.RegionID != nil {
		r := *c.RegionID
		c.RegionID = &r
	}
	if c.MaxParticipantsOrTeams != nil {
		m := *c.MaxParticipantsOrTeams
		c.MaxParticipantsOrTeams = &m
	}
	return &c
}

func cloneTeam(t model.Team) *model.Team {
	return &t
}

func cloneMember(m model.TeamMember) *model.TeamMember {
	return &m
}

func cloneRecruiting(r *model.RecruitingInfo) *model.RecruitingInfo {
	if r == nil {
		return nil
	}
	out := &model.RecruitingInfo{}
	if r.RequiredMembers != nil {
		n := *r.RequiredMembers
		out.RequiredMembers = &n
	}
	if r.RolesNeeded != nil {
		out.RolesNeeded = append([]string(nil), r.RolesNeeded...)
	}
	return out
}

func cloneApplication(a model.Application) *model.Application {
	if a.ApplicantUserID != nil {
		id := *a.ApplicantUserID
		a.ApplicantUserID = &id
	}
	if a.ApplicantTeamID != nil {
		id := *a.ApplicantTeamID
		a.ApplicantTeamID = &id
	}
	a.Recruiting = cloneRecruiting(a.Recruiting)
	return &a
}

func cloneJoinRequest(r model.JoinRequest) *model.JoinRequest {
	if r.DecidedOn != nil {
		t := *r.DecidedOn
		r.DecidedOn = &t
	}
	return &r
}

func sortApplications(apps []*model.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].SubmittedOn.After(apps[j].SubmittedOn)
	})
}
