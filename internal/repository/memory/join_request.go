package memory

import (
	"context"
	"sort"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// JoinRequestRepository stores join requests
type JoinRequestRepository struct {
	s *Store
}

// Create inserts a pending join request. A second pending request for the
// same (team, user, competition) fails with database.ErrDuplicate.
func (r *JoinRequestRepository) Create(_ context.Context, req *model.JoinRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.joinRequests {
		if existing.Status == model.JoinRequestStatusPending &&
			existing.TeamID == req.TeamID &&
			existing.UserID == req.UserID &&
			existing.CompetitionID == req.CompetitionID {
			return database.ErrDuplicate
		}
	}

	req.ID = newID()
	req.Status = model.JoinRequestStatusPending
	req.CreatedOn = r.s.now()
	req.DecidedOn = nil
	r.s.joinRequests[req.ID] = *req
	return nil
}

// GetByID retrieves a join request by ID
func (r *JoinRequestRepository) GetByID(_ context.Context, id string) (*model.JoinRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.joinRequests[id]
	if !ok {
		return nil, nil
	}
	return cloneJoinRequest(req), nil
}

// ListByTeam lists a team's join requests, optionally filtered by status, oldest first
func (r *JoinRequestRepository) ListByTeam(_ context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.JoinRequest, 0)
	for _, req := range r.s.joinRequests {
		if req.TeamID != teamID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		out = append(out, cloneJoinRequest(req))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, nil
}

// UpdateStatus moves a join request from one status to another, failing with
// database.ErrConflict when the stored status is no longer from
func (r *JoinRequestRepository) UpdateStatus(_ context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.joinRequests[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if req.Status != from {
		return nil, database.ErrConflict
	}
	if to == model.JoinRequestStatusPending {
		for otherID, other := range r.s.joinRequests {
			if otherID != id && other.Status == model.JoinRequestStatusPending &&
				other.TeamID == req.TeamID && other.UserID == req.UserID && other.CompetitionID == req.CompetitionID {
				return nil, database.ErrDuplicate
			}
		}
	}

	req.Status = to
	if to == model.JoinRequestStatusPending {
		req.DecidedOn = nil
	} else {
		now := r.s.now()
		req.DecidedOn = &now
	}
	r.s.joinRequests[id] = req
	return cloneJoinRequest(req), nil
}
