// Package app hosts the use-cases that sit between the transport
// adapter and the domain state machines: it turns an inbound command
// into domain mutations and a batch of outbound events, the way the
// wire protocol expects to see them.
package app

import (
	"errors"
	"math/rand"

	"guandan/internal/domain"
)

var (
	ErrDealInProgress = errors.New("app: a deal is already in progress")
	ErrNoActiveDeal   = errors.New("app: no active deal")
)

// EventKind tags an outbound event with the wire message it maps to.
type EventKind string

const (
	EventRoomState   EventKind = "roomState"
	EventGameState   EventKind = "gameState"
	EventError       EventKind = "error"
	EventGameOver    EventKind = "gameOver"
	EventMatchOver   EventKind = "matchOver"
	EventChatMessage EventKind = "chatMessage"
)

// Event is one outbound message produced by a use-case. A nil
// Recipients means broadcast to every seat in the room; otherwise it
// is delivered privately to the listed seats only.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []domain.Seat
}

func broadcast(kind EventKind, payload any) Event {
	return Event{Kind: kind, Payload: payload}
}

func private(seat domain.Seat, kind EventKind, payload any) Event {
	return Event{Kind: kind, Payload: payload, Recipients: []domain.Seat{seat}}
}

// Service wraps a MatchController with the use-cases a room drives it
// through. rng is the room-private seedable source used only by the
// shuffler.
type Service struct {
	Controller *domain.MatchController
	rng        *rand.Rand
}

// NewService returns a service for a fresh match, seeded by rng.
func NewService(rng *rand.Rand) *Service {
	return &Service{Controller: domain.NewMatchController(), rng: rng}
}

// StartGame begins the next deal: a fresh Deal Engine seeded with the
// controller's current team-levels, active team and previous winners.
func (s *Service) StartGame() ([]Event, error) {
	if s.Controller.Deal != nil && s.Controller.Deal.Phase != domain.Score {
		return nil, ErrDealInProgress
	}
	deal := s.Controller.StartNextDeal(s.rng)
	return append([]Event{broadcast(EventRoomState, nil)}, s.gameStateEvents(deal)...), nil
}

// PlayCards applies seat's play request and reports the resulting
// events, including a gameOver/matchOver pair if the play ends the
// deal (and, in turn, the match).
func (s *Service) PlayCards(seat domain.Seat, cardTags []string) ([]Event, error) {
	deal := s.Controller.Deal
	if deal == nil {
		return nil, ErrNoActiveDeal
	}
	if _, err := deal.PlayCards(seat, cardTags); err != nil {
		if isPhaseError(err) {
			return nil, err
		}
		return []Event{private(seat, EventError, ErrorPayload{Message: err.Error()})}, err
	}
	return s.afterMutation(deal), nil
}

// Pass applies seat's pass request.
func (s *Service) Pass(seat domain.Seat) ([]Event, error) {
	deal := s.Controller.Deal
	if deal == nil {
		return nil, ErrNoActiveDeal
	}
	if err := deal.Pass(seat); err != nil {
		if isPhaseError(err) {
			return nil, err
		}
		return []Event{private(seat, EventError, ErrorPayload{Message: err.Error()})}, err
	}
	return s.afterMutation(deal), nil
}

// PayTribute applies a human tribute payment.
func (s *Service) PayTribute(seat domain.Seat, cardTag string) ([]Event, error) {
	deal := s.Controller.Deal
	if deal == nil {
		return nil, ErrNoActiveDeal
	}
	if err := deal.PayTribute(seat, cardTag); err != nil {
		if isPhaseError(err) {
			return nil, err
		}
		return []Event{private(seat, EventError, ErrorPayload{Message: err.Error()})}, err
	}
	return s.afterMutation(deal), nil
}

// AutoPayTribute pays tribute on behalf of a bot seat.
func (s *Service) AutoPayTribute(seat domain.Seat) ([]Event, error) {
	deal := s.Controller.Deal
	if deal == nil {
		return nil, ErrNoActiveDeal
	}
	if err := deal.AutoPayTribute(seat); err != nil {
		return nil, err
	}
	return s.afterMutation(deal), nil
}

// ReturnTribute applies a human return-tribute.
func (s *Service) ReturnTribute(seat domain.Seat, cardTag string) ([]Event, error) {
	deal := s.Controller.Deal
	if deal == nil {
		return nil, ErrNoActiveDeal
	}
	if err := deal.ReturnTribute(seat, cardTag); err != nil {
		if isPhaseError(err) {
			return nil, err
		}
		return []Event{private(seat, EventError, ErrorPayload{Message: err.Error()})}, err
	}
	return s.afterMutation(deal), nil
}

// isPhaseError reports whether err is a stale-command class error --
// correct shape, wrong phase or turn -- which spec requires to be
// dropped silently rather than surfaced as a rule violation.
func isPhaseError(err error) bool {
	return errors.Is(err, domain.ErrWrongPhase) || errors.Is(err, domain.ErrNotYourTurn)
}

// AutoReturnTribute returns tribute on behalf of a bot seat.
func (s *Service) AutoReturnTribute(seat domain.Seat) ([]Event, error) {
	deal := s.Controller.Deal
	if deal == nil {
		return nil, ErrNoActiveDeal
	}
	if err := deal.AutoReturnTribute(seat); err != nil {
		return nil, err
	}
	return s.afterMutation(deal), nil
}

// ForceEnd discards the current deal and resets match-level state.
func (s *Service) ForceEnd() []Event {
	s.Controller.ForceEnd()
	return []Event{broadcast(EventRoomState, nil)}
}

// afterMutation packages the post-mutation gameState snapshot and, if
// the mutation ended the deal, the gameOver/matchOver sequence.
func (s *Service) afterMutation(deal *domain.DealState) []Event {
	events := s.gameStateEvents(deal)
	if deal.Phase != domain.Score {
		return events
	}
	events = append(events, broadcast(EventGameOver, GameOverPayload{Winners: seatInts(deal.Winners)}))
	over, team := s.Controller.FinishDeal(deal.Winners)
	if over {
		levels := map[string]int{"0": int(s.Controller.TeamLevels[0]), "1": int(s.Controller.TeamLevels[1])}
		s.Controller.ForceEnd()
		events = append(events, broadcast(EventMatchOver, MatchOverPayload{Team: team, Levels: levels}))
	}
	return events
}

// SnapshotFor builds the private gameState event a single seat is
// owed right now, for a reconnecting presence that missed the
// broadcast from the mutation that produced the current deal state.
func (s *Service) SnapshotFor(viewer domain.Seat) (Event, bool) {
	deal := s.Controller.Deal
	if deal == nil {
		return Event{}, false
	}
	return private(viewer, EventGameState, snapshotFor(s.Controller, deal, viewer)), true
}

// gameStateEvents builds one tailored gameState event per seat: the
// recipient's own hand in full, every other seat as a card count.
func (s *Service) gameStateEvents(deal *domain.DealState) []Event {
	events := make([]Event, 0, domain.NumSeats)
	for viewer := domain.Seat(0); viewer < domain.NumSeats; viewer++ {
		events = append(events, private(viewer, EventGameState, snapshotFor(s.Controller, deal, viewer)))
	}
	return events
}

func seatInts(seats []domain.Seat) []int {
	out := make([]int, len(seats))
	for i, s := range seats {
		out[i] = int(s)
	}
	return out
}
