package domain

import (
	"math/rand"
	"testing"
)

func TestStartFreshMatchEntersPlayingAtActiveTeamSeat(t *testing.T) {
	d := NewDealState(0, 2, nil)
	d.Start(rand.New(rand.NewSource(42)))

	if d.Phase != Playing {
		t.Fatalf("phase = %v, want Playing", d.Phase)
	}
	if d.CurrentTurn != Seat(0) {
		t.Fatalf("currentTurn = %v, want seat 0", d.CurrentTurn)
	}
	total := 0
	for s := Seat(0); s < NumSeats; s++ {
		total += len(d.Hands[s])
	}
	if total != 108 {
		t.Fatalf("total dealt cards = %d, want 108", total)
	}
}

func TestLeadPlayAcceptedAndAdvancesTurn(t *testing.T) {
	d := NewDealState(0, 2, nil)
	d.Start(rand.New(rand.NewSource(7)))

	lead := d.Hands[0][0]
	combo, err := d.PlayCards(0, []string{lead.Tag})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if combo.Type != Single {
		t.Fatalf("combo type = %v, want Single", combo.Type)
	}
	if d.CurrentTurn != Seat(1) {
		t.Fatalf("currentTurn = %v, want seat 1", d.CurrentTurn)
	}
	if d.LastPlay == nil || d.LastPlay.Player != Seat(0) {
		t.Fatalf("lastPlay not recorded for seat 0")
	}
}

func TestPassCycleReturnsToAggressor(t *testing.T) {
	d := NewDealState(0, 2, nil)
	d.Phase = Playing
	d.CurrentTurn = 0
	for s := Seat(0); s < NumSeats; s++ {
		d.Hands[s] = []Card{{Suit: Spades, Rank: Rank(4 + int(s)), Tag: newTag(Spades, Rank(4+int(s)), 0)}}
	}
	d.Hands[0] = append(d.Hands[0], Card{Suit: Hearts, Rank: King, Tag: newTag(Hearts, King, 0)})

	king := Card{Suit: Hearts, Rank: King, Tag: newTag(Hearts, King, 0)}
	_, err := d.PlayCards(0, []string{king.Tag})
	if err != nil {
		t.Fatalf("seat 0 lead rejected: %v", err)
	}
	if d.CurrentTurn != 1 {
		t.Fatalf("currentTurn = %v, want 1", d.CurrentTurn)
	}

	for _, s := range []Seat{1, 2, 3} {
		if err := d.Pass(s); err != nil {
			t.Fatalf("seat %d pass rejected: %v", s, err)
		}
	}
	if d.LastPlay != nil {
		t.Fatalf("lastPlay should be cleared after full pass cycle")
	}
	if d.CurrentTurn != 0 {
		t.Fatalf("currentTurn = %v, want back to seat 0", d.CurrentTurn)
	}
}

func TestPassOnFreeLeadRejected(t *testing.T) {
	d := NewDealState(0, 2, nil)
	d.Phase = Playing
	d.CurrentTurn = 0
	d.Hands[0] = []Card{{Suit: Spades, Rank: Five, Tag: newTag(Spades, Five, 0)}}
	if err := d.Pass(0); err != ErrCannotPassOnFreeLead {
		t.Fatalf("err = %v, want ErrCannotPassOnFreeLead", err)
	}
}

func TestDoubleWinTerminatesDeal(t *testing.T) {
	d := NewDealState(0, 2, nil)
	d.Phase = Playing
	d.CurrentTurn = 0
	d.Hands[0] = []Card{{Suit: Spades, Rank: Five, Tag: newTag(Spades, Five, 0)}}
	d.Hands[1] = []Card{{Suit: Spades, Rank: Six, Tag: newTag(Spades, Six, 0)}}
	d.Hands[2] = []Card{{Suit: Spades, Rank: Seven, Tag: newTag(Spades, Seven, 0)}}
	d.Hands[3] = []Card{{Suit: Spades, Rank: Eight, Tag: newTag(Spades, Eight, 0)}}

	if _, err := d.PlayCards(0, []string{d.Hands[0][0].Tag}); err != nil {
		t.Fatalf("seat 0 play rejected: %v", err)
	}
	// seat 0 emptied but deal continues (only one winner so far)
	if d.Phase != Playing {
		t.Fatalf("phase = %v, want Playing after single winner", d.Phase)
	}
	d.CurrentTurn = 2
	if _, err := d.PlayCards(2, []string{d.Hands[2][0].Tag}); err != nil {
		t.Fatalf("seat 2 play rejected: %v", err)
	}
	if d.Phase != Score {
		t.Fatalf("phase = %v, want Score after double win", d.Phase)
	}
	if len(d.Winners) != 4 || d.Winners[0] != 0 || d.Winners[1] != 2 {
		t.Fatalf("winners = %v, want [0 2] followed by the two other seats", d.Winners)
	}
}

func TestAntiTributeResistanceSkipsTribute(t *testing.T) {
	d := NewDealState(0, 2, []Seat{0, 2, 1, 3})
	d.Hands[1] = []Card{{Suit: SuitJoker, Rank: BigJoker, Tag: newTag(SuitJoker, BigJoker, 0)}}
	d.Hands[3] = []Card{{Suit: SuitJoker, Rank: BigJoker, Tag: newTag(SuitJoker, BigJoker, 1)}}

	d.enterTribute()

	if d.Phase != Playing {
		t.Fatalf("phase = %v, want Playing (resistance should skip tribute)", d.Phase)
	}
	if d.CurrentTurn != 0 {
		t.Fatalf("currentTurn = %v, want seat 0 (p1)", d.CurrentTurn)
	}
	if d.Tribute != nil {
		t.Fatalf("tribute state should not be populated after resistance")
	}
}

func TestTributeDoubleWinFlow(t *testing.T) {
	d := NewDealState(0, 2, []Seat{0, 2, 1, 3})
	d.Hands[0] = []Card{{Suit: Spades, Rank: Four, Tag: newTag(Spades, Four, 0)}}
	d.Hands[1] = []Card{{Suit: Spades, Rank: Six, Tag: newTag(Spades, Six, 0)}}
	d.Hands[2] = []Card{{Suit: Spades, Rank: Five, Tag: newTag(Spades, Five, 0)}}
	d.Hands[3] = []Card{{Suit: Spades, Rank: Ace, Tag: newTag(Spades, Ace, 0)}}

	d.enterTribute()
	if d.Phase != Tribute {
		t.Fatalf("phase = %v, want Tribute", d.Phase)
	}

	if err := d.AutoPayTribute(3); err != nil { // p4 -> p1
		t.Fatalf("auto pay p4 failed: %v", err)
	}
	if err := d.AutoPayTribute(1); err != nil { // p3 -> p2
		t.Fatalf("auto pay p3 failed: %v", err)
	}
	if d.Phase != ReturnTribute {
		t.Fatalf("phase = %v, want ReturnTribute", d.Phase)
	}
	// p4's ace (14) beats p3's six (6), so seat 3 becomes next-start seat
	if d.Tribute.NextStartSeat != 3 {
		t.Fatalf("nextStartSeat = %v, want seat 3", d.Tribute.NextStartSeat)
	}

	if err := d.AutoReturnTribute(0); err != nil {
		t.Fatalf("auto return p1 failed: %v", err)
	}
	if err := d.AutoReturnTribute(2); err != nil {
		t.Fatalf("auto return p2 failed: %v", err)
	}
	if d.Phase != Playing {
		t.Fatalf("phase = %v, want Playing", d.Phase)
	}
	if d.CurrentTurn != 3 {
		t.Fatalf("currentTurn = %v, want seat 3", d.CurrentTurn)
	}
}

func TestPayTributeAcceptsAnyCardTiedAtMaxValue(t *testing.T) {
	d := NewDealState(0, 2, []Seat{0, 2, 1, 3})
	// seat 3 (p4) holds two aces: either one satisfies "largest".
	d.Hands[0] = []Card{{Suit: Spades, Rank: Four, Tag: newTag(Spades, Four, 0)}}
	d.Hands[1] = []Card{{Suit: Spades, Rank: Six, Tag: newTag(Spades, Six, 0)}}
	d.Hands[2] = []Card{{Suit: Spades, Rank: Five, Tag: newTag(Spades, Five, 0)}}
	d.Hands[3] = []Card{
		{Suit: Spades, Rank: Ace, Tag: newTag(Spades, Ace, 0)},
		{Suit: Hearts, Rank: Ace, Tag: newTag(Hearts, Ace, 0)},
	}

	d.enterTribute()
	if d.Phase != Tribute {
		t.Fatalf("phase = %v, want Tribute", d.Phase)
	}

	// LargestCard would pick one specific ace; paying with the other
	// tied copy must still be accepted.
	if err := d.PayTribute(3, "S-14-0"); err != nil {
		t.Fatalf("pay with tied-value copy rejected: %v", err)
	}
	if _, already := d.Tribute.Paid[3]; !already {
		t.Fatalf("seat 3's tribute was not recorded as paid")
	}
}

func TestBombLadderDuringPlay(t *testing.T) {
	d := NewDealState(0, 2, nil)
	d.Phase = Playing
	d.CurrentTurn = 1
	// the other seats still hold cards, so the trick stays open after
	// seat 1's accepted play
	for _, s := range []Seat{0, 2, 3} {
		r := Rank(9 + int(s))
		d.Hands[s] = []Card{{Suit: Clubs, Rank: r, Tag: newTag(Clubs, r, 0)}}
	}

	sf := []Card{
		{Suit: Spades, Rank: Three, Tag: newTag(Spades, Three, 0)},
		{Suit: Spades, Rank: Four, Tag: newTag(Spades, Four, 0)},
		{Suit: Spades, Rank: Five, Tag: newTag(Spades, Five, 0)},
		{Suit: Spades, Rank: Six, Tag: newTag(Spades, Six, 0)},
		{Suit: Spades, Rank: Seven, Tag: newTag(Spades, Seven, 0)},
	}
	d.LastPlay = &LastPlay{Player: 0}
	d.LastPlay.Combination, _ = Classify(sf, d.Level)

	fourBomb := []Card{
		{Suit: Spades, Rank: Four, Copy: 0, Tag: newTag(Spades, Four, 0)},
		{Suit: Hearts, Rank: Four, Copy: 0, Tag: newTag(Hearts, Four, 0)},
		{Suit: Clubs, Rank: Four, Copy: 0, Tag: newTag(Clubs, Four, 0)},
		{Suit: Diamonds, Rank: Four, Copy: 0, Tag: newTag(Diamonds, Four, 0)},
	}
	d.Hands[1] = fourBomb
	if _, err := d.PlayCards(1, tagsOf(fourBomb)); err != ErrNotBigEnough {
		t.Fatalf("err = %v, want ErrNotBigEnough", err)
	}

	sixBomb := []Card{
		{Suit: Spades, Rank: Five, Copy: 0, Tag: newTag(Spades, Five, 0)},
		{Suit: Hearts, Rank: Five, Copy: 0, Tag: newTag(Hearts, Five, 0)},
		{Suit: Clubs, Rank: Five, Copy: 0, Tag: newTag(Clubs, Five, 0)},
		{Suit: Diamonds, Rank: Five, Copy: 0, Tag: newTag(Diamonds, Five, 0)},
		{Suit: Spades, Rank: Five, Copy: 1, Tag: newTag(Spades, Five, 1)},
		{Suit: Hearts, Rank: Five, Copy: 1, Tag: newTag(Hearts, Five, 1)},
	}
	d.Hands[1] = append(fourBomb, sixBomb...)
	if _, err := d.PlayCards(1, tagsOf(sixBomb)); err != nil {
		t.Fatalf("6-bomb should beat straight flush: %v", err)
	}
	if d.LastPlay.Player != 1 {
		t.Fatalf("lastPlay not replaced by accepted 6-bomb")
	}
}

func tagsOf(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Tag
	}
	return out
}
