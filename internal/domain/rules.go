package domain

// CombinationType identifies the shape of a classified play.
type CombinationType int

const (
	Invalid CombinationType = iota
	Single
	Pair
	Trips
	TripsWithPair
	Straight
	Tube
	Plate
	Bomb
	StraightFlush
	FourKings
)

func (t CombinationType) String() string {
	switch t {
	case Single:
		return "Single"
	case Pair:
		return "Pair"
	case Trips:
		return "Trips"
	case TripsWithPair:
		return "TripsWithPair"
	case Straight:
		return "Straight"
	case Tube:
		return "Tube"
	case Plate:
		return "Plate"
	case Bomb:
		return "Bomb"
	case StraightFlush:
		return "StraightFlush"
	case FourKings:
		return "FourKings"
	default:
		return "Invalid"
	}
}

// Combination is the result of classifying a candidate multiset of cards.
type Combination struct {
	Type      CombinationType
	Cards     []Card
	Value     int32
	BombCount int // number of cards; only meaningful for Bomb/StraightFlush
}

// ladderScore is the relative strength of a bomb-family combination on
// the bomb ladder. StraightFlush scores 5.5 so it sits strictly between
// a 5-bomb and a 6-bomb. FourKings outranks everything.
func (c Combination) ladderScore() float64 {
	switch c.Type {
	case FourKings:
		return 1 << 30
	case StraightFlush:
		return 5.5
	case Bomb:
		return float64(c.BombCount)
	default:
		return -1
	}
}

func (c Combination) isBombFamily() bool {
	return c.Type == Bomb || c.Type == StraightFlush || c.Type == FourKings
}

// Classify analyzes cards against the deal's active level and returns
// the strongest legal Guandan combination they form, or ok=false if
// the multiset is not a legal hand.
func Classify(cards []Card, level Rank) (Combination, bool) {
	if len(cards) == 0 {
		return Combination{}, false
	}

	sorted := SortDescending(cards, level)
	n := len(sorted)

	if n == 4 && isFourKings(sorted) {
		return Combination{Type: FourKings, Cards: sorted, Value: int32(1 << 30)}, true
	}

	switch n {
	case 1:
		return Combination{Type: Single, Cards: sorted, Value: sorted[0].LogicValue(level)}, true
	case 2:
		if v, ok := sameRankGroup(sorted, level); ok {
			return Combination{Type: Pair, Cards: sorted, Value: v}, true
		}
		return Combination{}, false
	case 3:
		if v, ok := sameRankGroup(sorted, level); ok {
			return Combination{Type: Trips, Cards: sorted, Value: v}, true
		}
		return Combination{}, false
	case 5:
		return classifyFive(sorted, level)
	case 6:
		if v, ok := sameRankGroup(sorted, level); ok {
			return Combination{Type: Bomb, Cards: sorted, Value: v, BombCount: n}, true
		}
		if v, ok := naturalConsecutiveGroups(sorted, level, 3, 2); ok {
			return Combination{Type: Tube, Cards: sorted, Value: v}, true
		}
		if v, ok := naturalConsecutiveGroups(sorted, level, 2, 3); ok {
			return Combination{Type: Plate, Cards: sorted, Value: v}, true
		}
		return Combination{}, false
	default:
		if n >= 4 {
			if v, ok := sameRankGroup(sorted, level); ok {
				return Combination{Type: Bomb, Cards: sorted, Value: v, BombCount: n}, true
			}
		}
		return Combination{}, false
	}
}

// classifyFive implements the length-5 priority order from the spec:
// a hand that reduces to one rank is a 5-bomb before anything else is
// tried; then trips-with-pair; then straight/straight-flush.
func classifyFive(sorted []Card, level Rank) (Combination, bool) {
	if v, ok := sameRankGroup(sorted, level); ok {
		return Combination{Type: Bomb, Cards: sorted, Value: v, BombCount: len(sorted)}, true
	}
	if v, ok := tripsWithPair(sorted, level); ok {
		return Combination{Type: TripsWithPair, Cards: sorted, Value: v}, true
	}
	if isNatural(sorted) {
		if v, ok := straightValue(sorted); ok {
			if sameSuit(sorted) {
				return Combination{Type: StraightFlush, Cards: sorted, Value: v, BombCount: 5}, true
			}
			return Combination{Type: Straight, Cards: sorted, Value: v}, true
		}
	}
	return Combination{}, false
}

// sameRankGroup reports whether cards reduce to a single rank once
// wilds absorb into it. A wild may only substitute for a rank <= Ace;
// an all-wild group is simply a group of level cards (value 19).
func sameRankGroup(cards []Card, level Rank) (int32, bool) {
	var wilds, nonWild []Card
	for _, c := range cards {
		if c.IsWild {
			wilds = append(wilds, c)
		} else {
			nonWild = append(nonWild, c)
		}
	}
	if len(nonWild) == 0 {
		if len(wilds) == 0 {
			return 0, false
		}
		return LevelCardValue, true
	}
	v0 := nonWild[0].LogicValue(level)
	for _, c := range nonWild[1:] {
		if c.LogicValue(level) != v0 {
			return 0, false
		}
	}
	if len(wilds) > 0 && v0 > int32(Ace) && v0 != LevelCardValue {
		return 0, false
	}
	return v0, true
}

// tripsWithPair tries every 3/2 split of a 5-card hand looking for one
// where each side independently reduces to its own rank.
func tripsWithPair(cards []Card, level Rank) (int32, bool) {
	n := len(cards)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var tripsIdx [3]int
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for c := b + 1; c < n; c++ {
				tripsIdx = [3]int{a, b, c}
				trips := []Card{cards[a], cards[b], cards[c]}
				var pair []Card
				for i := 0; i < n; i++ {
					if i != tripsIdx[0] && i != tripsIdx[1] && i != tripsIdx[2] {
						pair = append(pair, cards[i])
					}
				}
				tv, tok := sameRankGroup(trips, level)
				if !tok {
					continue
				}
				pv, pok := sameRankGroup(pair, level)
				if !pok || pv == tv {
					continue
				}
				return tv, true
			}
		}
	}
	return 0, false
}

func isFourKings(cards []Card) bool {
	if len(cards) != 4 {
		return false
	}
	small, big := 0, 0
	for _, c := range cards {
		switch c.Rank {
		case SmallJoker:
			small++
		case BigJoker:
			big++
		default:
			return false
		}
	}
	return small == 2 && big == 2
}

// isNatural reports that no card in the set is a level card or a joker
// (straights/tubes/plates are "natural only": no level/wild promotion).
func isNatural(cards []Card) bool {
	for _, c := range cards {
		if c.Suit == SuitJoker || c.IsLevelCard {
			return false
		}
	}
	return true
}

func sameSuit(cards []Card) bool {
	s := cards[0].Suit
	for _, c := range cards[1:] {
		if c.Suit != s {
			return false
		}
	}
	return true
}

// straightValue reports whether cards are 5 distinct natural ranks in
// consecutive order (Ace may complete a low straight 2-3-4-5-A, scoring
// 5) and returns the defining value.
func straightValue(cards []Card) (int32, bool) {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank)
	}
	sortInts(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] == ranks[i-1] {
			return 0, false
		}
	}
	if ranks[0] == int(Two) && ranks[1] == int(Three) && ranks[2] == int(Four) && ranks[3] == int(Five) && ranks[4] == int(Ace) {
		return int32(Five), true
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return 0, false
		}
	}
	return int32(ranks[len(ranks)-1]), true
}

// naturalConsecutiveGroups checks for groupCount natural, consecutive,
// same-rank groups of groupSize cards each (tube: 3 pairs; plate: 2
// triples) and returns the defining (highest) rank value.
func naturalConsecutiveGroups(cards []Card, level Rank, groupCount, groupSize int) (int32, bool) {
	if len(cards) != groupCount*groupSize || !isNatural(cards) {
		return 0, false
	}
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank)
	}
	sortInts(ranks)

	groupRanks := make([]int, 0, groupCount)
	for i := 0; i < len(ranks); i += groupSize {
		r := ranks[i]
		for j := 1; j < groupSize; j++ {
			if ranks[i+j] != r {
				return 0, false
			}
		}
		groupRanks = append(groupRanks, r)
	}
	for i := 1; i < len(groupRanks); i++ {
		if groupRanks[i] != groupRanks[i-1]+1 {
			return 0, false
		}
	}
	return int32(groupRanks[len(groupRanks)-1]), true
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// Compare returns a spaceship-style result for whether a beats b: > 0
// means a beats b, < 0 means b beats a, 0 means incomparable (the
// caller must treat 0 as "does not beat").
func Compare(a, b Combination) int {
	aBomb, bBomb := a.isBombFamily(), b.isBombFamily()
	if aBomb && bBomb {
		sa, sb := a.ladderScore(), b.ladderScore()
		if sa != sb {
			return cmpFloat(sa, sb)
		}
		return cmpInt32(a.Value, b.Value)
	}
	if aBomb != bBomb {
		if aBomb {
			return 1
		}
		return -1
	}
	if a.Type != b.Type || len(a.Cards) != len(b.Cards) {
		return 0
	}
	return cmpInt32(a.Value, b.Value)
}

func cmpFloat(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func cmpInt32(a, b int32) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
