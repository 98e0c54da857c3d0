package bot

import "guandan/internal/domain"

// BotLevel selects a bot identity's configured difficulty label. The
// heuristic strength itself is not tiered in this engine -- every
// level is served by the same GreedyBot -- but the label survives so
// identity pools and client UI can still present a difficulty choice.
type BotLevel string

const (
	BotLevelEasy BotLevel = "easy"
	BotLevelMedium BotLevel = "medium"
	BotLevelHard BotLevel = "hard"
)

// NewBrain returns the strategy collaborator for a given difficulty
// level; every level currently gets the same GreedyBot. The
// bot strategy heuristic is an external, replaceable concern; this
// server ships exactly one reference implementation.
func NewBrain(level BotLevel) Brain {
	return GreedyBot{}
}

// NewAgentForSeat wires a fresh Agent for seat with the default brain.
func NewAgentForSeat(seat domain.Seat, level BotLevel) *Agent {
	return &Agent{Seat: seat, Brain: NewBrain(level)}
}
