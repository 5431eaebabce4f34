package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sportfed/arena/internal/model"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testCompetition() *model.Competition {
	return &model.Competition{
		ID:                "comp-1",
		Type:              model.CompetitionTypeOpen,
		Status:            model.CompetitionStatusPublished,
		RegistrationStart: day(1),
		RegistrationEnd:   day(10),
		Start:             day(15),
		End:               day(20),
		OrganizerUserID:   "organizer",
	}
}

func TestCompetitionPhase_Boundaries(t *testing.T) {
	t.Parallel()
	c := testCompetition()

	tests := []struct {
		name string
		now  time.Time
		want model.CompetitionPhase
	}{
		{"before registration", day(1).Add(-time.Nanosecond), model.PhaseUpcoming},
		{"registration start inclusive", day(1), model.PhaseRegistrationOpen},
		{"inside registration", day(5), model.PhaseRegistrationOpen},
		{"registration end inclusive", day(10), model.PhaseRegistrationOpen},
		{"just after registration", day(10).Add(time.Nanosecond), model.PhaseRegistrationClosed},
		{"event start inclusive", day(15), model.PhaseRunning},
		{"event end inclusive", day(20), model.PhaseRunning},
		{"after event", day(20).Add(time.Nanosecond), model.PhaseFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CompetitionPhase(c, tt.now))
		})
	}
}

func TestCompetitionPhase_OverlappingWindows(t *testing.T) {
	t.Parallel()
	c := testCompetition()
	c.Start = day(5)
	c.End = day(20)

	assert.Equal(t, model.PhaseRegistrationOpen, CompetitionPhase(c, day(7)))
	assert.Equal(t, model.PhaseRunning, CompetitionPhase(c, day(11)))
}

func TestCompetitionPhase_Monotonic(t *testing.T) {
	t.Parallel()

	order := map[model.CompetitionPhase]int{
		model.PhaseUpcoming:           0,
		model.PhaseRegistrationOpen:   1,
		model.PhaseRegistrationClosed: 2,
		model.PhaseRunning:            3,
		model.PhaseFinished:           4,
	}

	competitions := []*model.Competition{testCompetition()}
	overlapping := testCompetition()
	overlapping.Start = day(3)
	competitions = append(competitions, overlapping)
	adjacent := testCompetition()
	adjacent.Start = day(10).Add(time.Second)
	competitions = append(competitions, adjacent)

	for _, c := range competitions {
		prev := -1
		for now := day(1).Add(-12 * time.Hour); now.Before(day(22)); now = now.Add(time.Hour) {
			phase := CompetitionPhase(c, now)
			rank, ok := order[phase]
			assert.True(t, ok, "unknown phase %q", phase)
			assert.GreaterOrEqual(t, rank, prev, "phase regressed at %s", now)
			prev = rank
		}
	}
}

func TestDerivedStatus(t *testing.T) {
	t.Parallel()
	c := testCompetition()

	assert.Equal(t, model.CompetitionStatusPublished, DerivedStatus(c, day(0)))
	assert.Equal(t, model.CompetitionStatusRegistrationOpen, DerivedStatus(c, day(2)))
	assert.Equal(t, model.CompetitionStatusPublished, DerivedStatus(c, day(12)))
	assert.Equal(t, model.CompetitionStatusInProgress, DerivedStatus(c, day(16)))
	assert.Equal(t, model.CompetitionStatusFinished, DerivedStatus(c, day(25)))
}

func TestCheckRegion(t *testing.T) {
	t.Parallel()

	north := "north"
	south := "south"
	empty := ""

	regional := testCompetition()
	regional.Type = model.CompetitionTypeRegional
	regional.RegionID = &north

	regionalNoRegion := testCompetition()
	regionalNoRegion.Type = model.CompetitionTypeRegional

	tests := []struct {
		name      string
		c         *model.Competition
		applicant *string
		want      RegionVerdict
	}{
		{"open competition", testCompetition(), &south, RegionUnrestricted},
		{"open competition without applicant region", testCompetition(), nil, RegionUnrestricted},
		{"match", regional, &north, RegionMatch},
		{"mismatch", regional, &south, RegionMismatch},
		{"applicant region missing", regional, nil, RegionUnknown},
		{"applicant region empty", regional, &empty, RegionUnknown},
		{"competition region missing", regionalNoRegion, &north, RegionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CheckRegion(tt.c, tt.applicant))
		})
	}
}

func TestEvaluator_Check(t *testing.T) {
	t.Parallel()

	north := "north"
	south := "south"
	regional := testCompetition()
	regional.Type = model.CompetitionTypeRegional
	regional.RegionID = &north

	permissive := NewEvaluator(true)
	strict := NewEvaluator(false)

	assert.NoError(t, permissive.Check(testCompetition(), nil, day(5), false))
	assert.ErrorIs(t, permissive.Check(testCompetition(), nil, day(11), false), ErrRegistrationClosed)
	assert.ErrorIs(t, permissive.Check(testCompetition(), nil, day(5), true), ErrDuplicateApplication)
	assert.ErrorIs(t, permissive.Check(regional, &south, day(5), false), ErrRegionMismatch)
	assert.NoError(t, permissive.Check(regional, &north, day(5), false))
	assert.NoError(t, permissive.Check(regional, nil, day(5), false))
	assert.ErrorIs(t, strict.Check(regional, nil, day(5), false), ErrRegionUnverified)
	assert.ErrorIs(t, strict.Check(nil, nil, day(5), false), ErrCompetitionNotFound)

	// Phase is reported before duplicates
	assert.ErrorIs(t, permissive.Check(testCompetition(), nil, day(0), true), ErrRegistrationClosed)

	assert.True(t, permissive.CanApply(testCompetition(), nil, day(5), false))
	assert.False(t, permissive.CanApply(testCompetition(), nil, day(5), true))
}

func TestCapacityExceeded(t *testing.T) {
	t.Parallel()

	c := testCompetition()
	assert.False(t, CapacityExceeded(c, 1000), "nil capacity is unlimited")

	limit := 2
	c.MaxParticipantsOrTeams = &limit
	assert.False(t, CapacityExceeded(c, 1))
	assert.True(t, CapacityExceeded(c, 2))
	assert.True(t, CapacityExceeded(c, 3))
}

func TestRoster(t *testing.T) {
	t.Parallel()

	team := &model.Team{ID: "t1", CaptainUserID: "cap"}
	roster := NewRoster(team, []*model.TeamMember{
		{TeamID: "t1", UserID: "u1"},
		{TeamID: "t1", UserID: "u2"},
	})

	assert.True(t, roster.Contains("cap"))
	assert.True(t, roster.Contains("u2"))
	assert.False(t, roster.Contains("u3"))
	assert.Equal(t, 2, roster.NonCaptainCount())
	assert.Equal(t, 3, roster.Size())
}

func TestTeamCapacity(t *testing.T) {
	t.Parallel()

	team := &model.Team{ID: "t1", CaptainUserID: "cap"}
	roster := NewRoster(team, []*model.TeamMember{{UserID: "u1"}, {UserID: "u2"}})

	required := func(n int) *model.RecruitingInfo { return &model.RecruitingInfo{RequiredMembers: &n} }

	assert.Equal(t, CapacityUnbounded, TeamCapacity(roster, nil))
	assert.Equal(t, CapacityUnbounded, TeamCapacity(roster, &model.RecruitingInfo{RolesNeeded: []string{"goalkeeper"}}))
	assert.Equal(t, CapacityUnder, TeamCapacity(roster, required(3)))
	assert.Equal(t, CapacityFull, TeamCapacity(roster, required(2)))
	assert.Equal(t, CapacityOver, TeamCapacity(roster, required(1)))
}
