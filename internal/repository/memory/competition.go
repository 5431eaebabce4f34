package memory

import (
	"context"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// UserRepository stores mirrored users
type UserRepository struct {
	s *Store
}

// Create inserts a user, assigning an ID and the participant role when unset
func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	u := *user
	if u.Role == "" {
		u.Role = model.UserRoleParticipant
	}
	*user = *r.s.PutUser(u)
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

// CompetitionRepository stores competitions
type CompetitionRepository struct {
	s *Store
}

// Create inserts a competition and assigns its ID
func (r *CompetitionRepository) Create(_ context.Context, c *model.Competition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	c.ID = newID()
	c.CreatedOn = now
	c.UpdatedOn = now
	r.s.competitions[c.ID] = *cloneCompetition(*c)
	return nil
}

// GetByID retrieves a competition by ID
func (r *CompetitionRepository) GetByID(_ context.Context, id string) (*model.Competition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.competitions[id]
	if !ok {
		return nil, nil
	}
	return cloneCompetition(c), nil
}

// UpdateStatus overwrites a competition's status
func (r *CompetitionRepository) UpdateStatus(_ context.Context, id string, status model.CompetitionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.competitions[id]
	if !ok {
		return database.ErrNotFound
	}
	c.Status = status
	c.UpdatedOn = r.s.now()
	r.s.competitions[id] = c
	return nil
}

// Delete removes a competition with its applications and join requests. It
// fails with database.ErrInUse while any application is pending, approved or
// forming.
func (r *CompetitionRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.competitions[id]; !ok {
		return database.ErrNotFound
	}
	for _, app := range r.s.applications {
		if app.CompetitionID == id && !app.Status.IsTerminal() {
			return database.ErrInUse
		}
	}
	for appID, app := range r.s.applications {
		if app.CompetitionID == id {
			delete(r.s.applications, appID)
		}
	}
	for reqID, req := range r.s.joinRequests {
		if req.CompetitionID == id {
			delete(r.s.joinRequests, reqID)
		}
	}
	delete(r.s.competitions, id)
	return nil
}

// ListForStatusSync returns competitions whose status is still derived from time
func (r *CompetitionRepository) ListForStatusSync(_ context.Context) ([]*model.Competition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Competition, 0)
	for _, c := range r.s.competitions {
		if c.Status == model.CompetitionStatusDraft || c.Status == model.CompetitionStatusFinished {
			continue
		}
		out = append(out, cloneCompetition(c))
	}
	return out, nil
}
