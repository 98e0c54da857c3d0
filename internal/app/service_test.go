package app

import (
	"math/rand"
	"testing"

	"guandan/internal/domain"
)

func TestStartGameDealsEveryHand(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	svc := NewService(rng)

	events, err := svc.StartGame()
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	if svc.Controller.Deal.Phase != domain.Playing {
		t.Fatalf("phase = %s, want Playing", svc.Controller.Deal.Phase)
	}

	stateEvents := 0
	for _, ev := range events {
		if ev.Kind != EventGameState {
			continue
		}
		stateEvents++
		payload := ev.Payload.(GameStatePayload)
		viewer := ev.Recipients[0]
		hand, ok := payload.Hands[viewer].([]string)
		if !ok || len(hand) != 27 {
			t.Fatalf("viewer %d hand = %v, want 27 tags", viewer, payload.Hands[viewer])
		}
	}
	if stateEvents != domain.NumSeats {
		t.Fatalf("gameState events = %d, want %d", stateEvents, domain.NumSeats)
	}
}

func TestStartGameRejectsWhileDealInProgress(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	if _, err := svc.StartGame(); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := svc.StartGame(); err != ErrDealInProgress {
		t.Fatalf("second start error = %v, want ErrDealInProgress", err)
	}
}

func TestPlayCardsRejectsWrongTurn(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(7)))
	if _, err := svc.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	deal := svc.Controller.Deal
	other := deal.CurrentTurn.Next()

	events, err := svc.PlayCards(other, []string{"anything"})
	if err != domain.ErrNotYourTurn {
		t.Fatalf("err = %v, want ErrNotYourTurn", err)
	}
	if len(events) != 0 {
		t.Fatalf("phase errors must be dropped silently, got %+v", events)
	}
}

func TestPlayCardsDoubleWinEndsDealAndEmitsGameOver(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(3)))
	if _, err := svc.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	deal := svc.Controller.Deal

	// Fast-forward straight to the partner's game-ending play: lead has
	// already gone out this deal, and it's now the partner's free lead.
	lead := deal.CurrentTurn
	partner := lead.Partner()
	deal.Winners = []domain.Seat{lead}
	deal.Hands[lead] = nil
	deal.Hands[partner] = []domain.Card{{Tag: "H-3", Suit: domain.Hearts, Rank: domain.Three}}
	deal.CurrentTurn = partner
	deal.LastPlay = nil

	events, err := svc.PlayCards(partner, []string{"H-3"})
	if err != nil {
		t.Fatalf("partner play: %v", err)
	}
	if deal.Phase != domain.Score {
		t.Fatalf("double win should end the deal, phase = %s", deal.Phase)
	}
	dispatchHasKind(t, events, EventGameOver)
}

func TestForceEndResetsControllerAndBroadcastsRoomState(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	if _, err := svc.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}

	events := svc.ForceEnd()
	if svc.Controller.Deal != nil {
		t.Fatalf("expected controller deal cleared after ForceEnd")
	}
	if len(events) != 1 || events[0].Kind != EventRoomState {
		t.Fatalf("expected a single roomState event, got %+v", events)
	}
}

func dispatchHasKind(t *testing.T, events []Event, kind EventKind) {
	t.Helper()
	for _, ev := range events {
		if ev.Kind == kind {
			return
		}
	}
	t.Fatalf("expected an event of kind %q among %+v", kind, events)
}
