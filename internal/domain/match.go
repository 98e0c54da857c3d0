package domain

import "math/rand"

const (
	MinLevel Rank = 2
	MaxLevel Rank = 14
)

// MatchController chains deals, applies level-up steps between them,
// and detects match termination. It owns the current DealState but
// never holds a back-reference from it: the deal engine is one-way
// owned, per the ownership convention documented for this codebase.
type MatchController struct {
	TeamLevels      [2]Rank
	ActiveTeam      int
	ConsecutiveWins [2]int
	LastWinners     []Seat
	Deal            *DealState
}

// NewMatchController returns a controller for a fresh match: both
// teams at the minimum level, team 0 banking first.
func NewMatchController() *MatchController {
	return &MatchController{TeamLevels: [2]Rank{MinLevel, MinLevel}}
}

// StartNextDeal constructs and starts a fresh DealState seeded with
// the controller's current team-levels, active team, and the previous
// deal's finishing order, then installs it as the controller's deal.
func (m *MatchController) StartNextDeal(rng *rand.Rand) *DealState {
	deal := NewDealState(m.ActiveTeam, m.TeamLevels[m.ActiveTeam], m.LastWinners)
	deal.Start(rng)
	m.Deal = deal
	return deal
}

// FinishDeal applies the level-up step for finishOrder (the deal's
// full winners array), switches the banker if the winning team
// wasn't already active, and reports whether the match has now been
// won. Call this once a DealState reaches Score.
func (m *MatchController) FinishDeal(finishOrder []Seat) (over bool, winningTeam int) {
	p1, p2, p3 := finishOrder[0], finishOrder[1], finishOrder[2]
	winningTeam = p1.Team()

	var step Rank
	switch {
	case p1.Team() == p2.Team():
		step = 3
	case p1.Team() == p3.Team():
		step = 2
	default:
		step = 1
	}

	priorLevel := m.TeamLevels[winningTeam]
	other := 1 - winningTeam
	m.ConsecutiveWins[other] = 0
	if priorLevel == MaxLevel {
		m.ConsecutiveWins[winningTeam]++
	} else {
		m.ConsecutiveWins[winningTeam] = 0
	}

	newLevel := priorLevel + step
	if newLevel > MaxLevel {
		newLevel = MaxLevel
	}
	m.TeamLevels[winningTeam] = newLevel

	if winningTeam != m.ActiveTeam {
		m.ActiveTeam = winningTeam
	}
	m.LastWinners = finishOrder

	return m.ConsecutiveWins[winningTeam] >= 2, winningTeam
}

// ForceEnd discards the current deal and resets all match-level
// state, per the host's forceEnd override.
func (m *MatchController) ForceEnd() {
	m.Deal = nil
	m.TeamLevels = [2]Rank{MinLevel, MinLevel}
	m.ActiveTeam = 0
	m.ConsecutiveWins = [2]int{0, 0}
	m.LastWinners = nil
}
