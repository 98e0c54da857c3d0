package bot

import (
	"sort"

	"guandan/internal/domain"
)

// Brain is the external bot-strategy collaborator named in this
// server's interface contract: a pure function of a hand, the deal's
// active level, and an optional target to beat, returning either a
// play or a pass. It never mutates hand; the engine validates
// whatever it returns exactly as it would a human's request.
type Brain interface {
	Decide(hand []domain.Card, level domain.Rank, target *domain.Combination) (play []domain.Card, pass bool)
}

// GreedyBot is the one reference strategy shipped with this server.
// It leads with the first candidate from candidateCombinations and,
// when following, plays the first candidate that legally beats the
// target; see candidateCombinations for how far that order goes
// toward "cheapest". Deeper play (holding bombs, shedding partners' suits,
// tribute-aware discards) is a replaceable collaborator's job, not
// this engine's.
type GreedyBot struct{}

func (GreedyBot) Decide(hand []domain.Card, level domain.Rank, target *domain.Combination) ([]domain.Card, bool) {
	if len(hand) == 0 {
		return nil, true
	}
	candidates := candidateCombinations(hand, level)
	if target == nil {
		if len(candidates) == 0 {
			return nil, true
		}
		return candidates[0].cards, false
	}
	for _, cand := range candidates {
		if domain.Compare(cand.combo, *target) > 0 {
			return cand.cards, false
		}
	}
	return nil, true
}

type scoredCombo struct {
	cards []domain.Card
	combo domain.Combination
}

// candidateCombinations enumerates the same-rank plays (single, pair,
// trips, bomb) a hand can form, sorted with domain.Compare: every
// non-bomb comes before every bomb, and bombs are in ladder order.
// Compare does not rank plays of different shapes against each other,
// so the order among singles, pairs and trips is not defined and the
// first candidate is not necessarily the cheapest. It does not search
// straights, tubes or plates -- those are left on the table by this
// reference bot rather than reproduced exactly, since the strategy
// itself sits outside this engine's scope.
func candidateCombinations(hand []domain.Card, level domain.Rank) []scoredCombo {
	byValue := map[int32][]domain.Card{}
	for _, c := range hand {
		byValue[c.LogicValue(level)] = append(byValue[c.LogicValue(level)], c)
	}

	var out []scoredCombo
	for _, group := range byValue {
		for size := 1; size <= len(group) && size <= 3; size++ {
			if combo, ok := domain.Classify(group[:size], level); ok {
				out = append(out, scoredCombo{cards: group[:size], combo: combo})
			}
		}
		if len(group) >= 4 {
			if combo, ok := domain.Classify(group, level); ok {
				out = append(out, scoredCombo{cards: group, combo: combo})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return domain.Compare(out[i].combo, out[j].combo) < 0
	})
	return out
}
