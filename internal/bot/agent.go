package bot

import (
	"guandan/internal/domain"
)

// Agent binds a seat to a Brain, giving the room a single call it can
// make on every bot turn without knowing strategy internals.
type Agent struct {
	Seat  domain.Seat
	Brain Brain
}

// NewAgent returns an agent seated at seat using the default strategy.
func NewAgent(seat domain.Seat) *Agent {
	return &Agent{Seat: seat, Brain: GreedyBot{}}
}

// DecidePlay asks the agent's brain for a move against the current
// hand and target, then reports it as either a play or a pass.
func (a *Agent) DecidePlay(hand []domain.Card, level domain.Rank, target *domain.Combination) (cards []domain.Card, pass bool) {
	return a.Brain.Decide(hand, level, target)
}
