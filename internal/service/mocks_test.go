package service

import (
	"context"

	"github.com/sportfed/arena/internal/model"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockCompetitionRepo struct {
	createFunc            func(ctx context.Context, c *model.Competition) error
	getByIDFunc           func(ctx context.Context, id string) (*model.Competition, error)
	updateStatusFunc      func(ctx context.Context, id string, status model.CompetitionStatus) error
	deleteFunc            func(ctx context.Context, id string) error
	listForStatusSyncFunc func(ctx context.Context) ([]*model.Competition, error)
}

func (m *mockCompetitionRepo) Create(ctx context.Context, c *model.Competition) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	return nil
}

func (m *mockCompetitionRepo) GetByID(ctx context.Context, id string) (*model.Competition, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCompetitionRepo) UpdateStatus(ctx context.Context, id string, status model.CompetitionStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockCompetitionRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockCompetitionRepo) ListForStatusSync(ctx context.Context) ([]*model.Competition, error) {
	if m.listForStatusSyncFunc != nil {
		return m.listForStatusSyncFunc(ctx)
	}
	return nil, nil
}

type mockApplicationRepo struct {
	createFunc            func(ctx context.Context, app *model.Application) error
	getByIDFunc           func(ctx context.Context, id string) (*model.Application, error)
	listByCompetitionFunc func(ctx context.Context, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error)
	listByTeamFunc        func(ctx context.Context, teamID string) ([]*model.Application, error)
	findActiveFunc        func(ctx context.Context, competitionID, applicantID string) (*model.Application, error)
	countByStatusFunc     func(ctx context.Context, competitionID string, status model.ApplicationStatus) (int, error)
	updateStatusFunc      func(ctx context.Context, id string, from, to model.ApplicationStatus) (*model.Application, error)
	approveFunc           func(ctx context.Context, id string, from model.ApplicationStatus) (*model.Application, error)
	updateRecruitingFunc  func(ctx context.Context, id string, info *model.RecruitingInfo) (*model.Application, error)
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, app)
	}
	return nil
}

func (m *mockApplicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockApplicationRepo) ListByCompetition(ctx context.Context, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error) {
	if m.listByCompetitionFunc != nil {
		return m.listByCompetitionFunc(ctx, competitionID, filter)
	}
	return nil, nil
}

func (m *mockApplicationRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Application, error) {
	if m.listByTeamFunc != nil {
		return m.listByTeamFunc(ctx, teamID)
	}
	return nil, nil
}

func (m *mockApplicationRepo) FindActive(ctx context.Context, competitionID, applicantID string) (*model.Application, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, competitionID, applicantID)
	}
	return nil, nil
}

func (m *mockApplicationRepo) CountByStatus(ctx context.Context, competitionID string, status model.ApplicationStatus) (int, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, competitionID, status)
	}
	return 0, nil
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, id string, from, to model.ApplicationStatus) (*model.Application, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil, nil
}

// Approve falls back to UpdateStatus when no approveFunc is set
func (m *mockApplicationRepo) Approve(ctx context.Context, id string, from model.ApplicationStatus) (*model.Application, error) {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, id, from)
	}
	return m.UpdateStatus(ctx, id, from, model.ApplicationStatusApproved)
}

func (m *mockApplicationRepo) UpdateRecruiting(ctx context.Context, id string, info *model.RecruitingInfo) (*model.Application, error) {
	if m.updateRecruitingFunc != nil {
		return m.updateRecruitingFunc(ctx, id, info)
	}
	return nil, nil
}

type mockTeamRepo struct {
	createFunc        func(ctx context.Context, team *model.Team) error
	getByIDFunc       func(ctx context.Context, id string) (*model.Team, error)
	renameFunc        func(ctx context.Context, id, name string) (*model.Team, error)
	deleteFunc        func(ctx context.Context, id string) error
	listByCaptainFunc func(ctx context.Context, userID string) ([]*model.Team, error)
	listByMemberFunc  func(ctx context.Context, userID string) ([]*model.Team, error)
	listMembersFunc   func(ctx context.Context, teamID string) ([]*model.TeamMember, error)
	getMemberFunc     func(ctx context.Context, memberID string) (*model.TeamMember, error)
	addMemberFunc     func(ctx context.Context, member *model.TeamMember) error
	removeMemberFunc  func(ctx context.Context, memberID string) error
}

func (m *mockTeamRepo) Create(ctx context.Context, team *model.Team) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, team)
	}
	return nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTeamRepo) Rename(ctx context.Context, id, name string) (*model.Team, error) {
	if m.renameFunc != nil {
		return m.renameFunc(ctx, id, name)
	}
	return nil, nil
}

func (m *mockTeamRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockTeamRepo) ListByCaptain(ctx context.Context, userID string) ([]*model.Team, error) {
	if m.listByCaptainFunc != nil {
		return m.listByCaptainFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockTeamRepo) ListByMember(ctx context.Context, userID string) ([]*model.Team, error) {
	if m.listByMemberFunc != nil {
		return m.listByMemberFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockTeamRepo) ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
	if m.listMembersFunc != nil {
		return m.listMembersFunc(ctx, teamID)
	}
	return nil, nil
}

func (m *mockTeamRepo) GetMember(ctx context.Context, memberID string) (*model.TeamMember, error) {
	if m.getMemberFunc != nil {
		return m.getMemberFunc(ctx, memberID)
	}
	return nil, nil
}

func (m *mockTeamRepo) AddMember(ctx context.Context, member *model.TeamMember) error {
	if m.addMemberFunc != nil {
		return m.addMemberFunc(ctx, member)
	}
	return nil
}

func (m *mockTeamRepo) RemoveMember(ctx context.Context, memberID string) error {
	if m.removeMemberFunc != nil {
		return m.removeMemberFunc(ctx, memberID)
	}
	return nil
}

type mockJoinRequestRepo struct {
	createFunc       func(ctx context.Context, req *model.JoinRequest) error
	getByIDFunc      func(ctx context.Context, id string) (*model.JoinRequest, error)
	listByTeamFunc   func(ctx context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error)
	updateStatusFunc func(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error)
}

func (m *mockJoinRequestRepo) Create(ctx context.Context, req *model.JoinRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil
}

func (m *mockJoinRequestRepo) GetByID(ctx context.Context, id string) (*model.JoinRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockJoinRequestRepo) ListByTeam(ctx context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
	if m.listByTeamFunc != nil {
		return m.listByTeamFunc(ctx, teamID, status)
	}
	return nil, nil
}

func (m *mockJoinRequestRepo) UpdateStatus(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil, nil
}

type mockUserRepo struct {
	getByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}
