package memory

import (
	"context"
	"sort"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// TeamRepository stores teams and their member rows
type TeamRepository struct {
	s *Store
}

// Create inserts a team and assigns its ID
func (r *TeamRepository) Create(_ context.Context, team *model.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	team.ID = newID()
	team.CreatedOn = r.s.now()
	r.s.teams[team.ID] = *team
	return nil
}

// GetByID retrieves a team by ID
func (r *TeamRepository) GetByID(_ context.Context, id string) (*model.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.teams[id]
	if !ok {
		return nil, nil
	}
	return cloneTeam(t), nil
}

// Rename changes a team's name
func (r *TeamRepository) Rename(_ context.Context, id, name string) (*model.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	t.Name = name
	r.s.teams[id] = t
	return cloneTeam(t), nil
}

// Delete removes a team together with its join requests, member rows and
// applications. It fails with database.ErrInUse while any of the team's
// applications is pending, approved or forming.
func (r *TeamRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teams[id]; !ok {
		return database.ErrNotFound
	}
	for _, app := range r.s.applications {
		if app.ApplicantTeamID != nil && *app.ApplicantTeamID == id && !app.Status.IsTerminal() {
			return database.ErrInUse
		}
	}
	for reqID, req := range r.s.joinRequests {
		if req.TeamID == id {
			delete(r.s.joinRequests, reqID)
		}
	}
	for memberID, m := range r.s.members {
		if m.TeamID == id {
			delete(r.s.members, memberID)
		}
	}
	for appID, app := range r.s.applications {
		if app.ApplicantTeamID != nil && *app.ApplicantTeamID == id {
			delete(r.s.applications, appID)
		}
	}
	delete(r.s.teams, id)
	return nil
}

// ListByCaptain lists teams the user captains
func (r *TeamRepository) ListByCaptain(_ context.Context, userID string) ([]*model.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Team, 0)
	for _, t := range r.s.teams {
		if t.CaptainUserID == userID {
			out = append(out, cloneTeam(t))
		}
	}
	sortTeams(out)
	return out, nil
}

// ListByMember lists teams the user belongs to through a member row
func (r *TeamRepository) ListByMember(_ context.Context, userID string) ([]*model.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Team, 0)
	for _, m := range r.s.members {
		if m.UserID != userID {
			continue
		}
		if t, ok := r.s.teams[m.TeamID]; ok {
			out = append(out, cloneTeam(t))
		}
	}
	sortTeams(out)
	return out, nil
}

// ListMembers lists a team's member rows, oldest first
func (r *TeamRepository) ListMembers(_ context.Context, teamID string) ([]*model.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.TeamMember, 0)
	for _, m := range r.s.members {
		if m.TeamID == teamID {
			out = append(out, cloneMember(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedOn.Before(out[j].JoinedOn) })
	return out, nil
}

// GetMember retrieves a member row by ID
func (r *TeamRepository) GetMember(_ context.Context, memberID string) (*model.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[memberID]
	if !ok {
		return nil, nil
	}
	return cloneMember(m), nil
}

// AddMember inserts a member row. A second row for the same (team, user)
// fails with database.ErrDuplicate.
func (r *TeamRepository) AddMember(_ context.Context, member *model.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range r.s.members {
		if m.TeamID == member.TeamID && m.UserID == member.UserID {
			return database.ErrDuplicate
		}
	}

	member.ID = newID()
	member.JoinedOn = r.s.now()
	r.s.members[member.ID] = *member
	return nil
}

// RemoveMember deletes a member row
func (r *TeamRepository) RemoveMember(_ context.Context, memberID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[memberID]; !ok {
		return database.ErrNotFound
	}
	delete(r.s.members, memberID)
	return nil
}

func sortTeams(teams []*model.Team) {
	sort.SliceStable(teams, func(i, j int) bool { return teams[i].CreatedOn.After(teams[j].CreatedOn) })
}
