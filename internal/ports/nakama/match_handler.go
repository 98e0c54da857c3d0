package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"time"

	"guandan/internal/app"
	"guandan/internal/bot"
	"guandan/internal/config"
	"guandan/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ticksPerSecond is the MatchInit tick rate; scheduled-task delays are
// expressed in seconds and converted against it.
const ticksPerSecond = 5

// Seat holds one of the room's four occupants: a connected human, a
// disconnected human waiting to reconnect by name, or a bot filled in
// at host force-start.
type Seat struct {
	Name      string
	UserID    string
	Presence  runtime.Presence
	IsBot     bool
	Ready     bool
	Connected bool
}

// scheduledTask is a bot decision or the inter-deal grace pause,
// queued against the engine token in effect when it was scheduled. If
// a forceEnd or deal transition mints a new token before FireAtTick,
// the task's captured token goes stale and MatchLoop drops it instead
// of acting on a detached engine.
type scheduledTask struct {
	Kind       string // "bot" or "grace"
	Token      string
	FireAtTick int64
	Seat       domain.Seat
}

// MatchState is the authoritative runtime state for a single Guandan
// room: its four seats, the match-wide service, and any scheduled bot
// or grace tasks awaiting their tick.
type MatchState struct {
	Seats    [domain.NumSeats]*Seat
	Agents   [domain.NumSeats]*bot.Agent
	GameMode string

	Service *app.Service

	EngineToken string
	Pending     []scheduledTask

	cfg config.GameConfig
}

func (s *MatchState) openSeatCount() int {
	n := 0
	for _, seat := range s.Seats {
		if seat == nil {
			n++
		}
	}
	return n
}

func shouldTerminateNoHumans(s *MatchState) bool {
	for _, seat := range s.Seats {
		if seat != nil && !seat.IsBot && seat.Connected {
			return false
		}
	}
	return true
}

type matchHandler struct{}

// NewMatch is the factory registered with Nakama for MatchNameGuandan.
func NewMatch() runtime.Match {
	return &matchHandler{}
}

func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: could not load bot identities, falling back to generated names: %v", err)
	} else if err := bot.ProvisionBots(ctx, nk, logger); err != nil {
		logger.Warn("MatchInit: could not provision bot accounts: %v", err)
	}

	state := &MatchState{
		GameMode:    "Normal",
		Service:     app.NewService(rand.New(rand.NewSource(time.Now().UnixNano()))),
		EngineToken: newEngineToken(),
		cfg:         config.GetGameConfig(),
	}

	label, err := json.Marshal(map[string]int{MatchLabelKeyOpenSeats: domain.NumSeats})
	if err != nil {
		logger.Error("MatchInit: failed to marshal label: %v", err)
		return state, ticksPerSecond, ""
	}
	return state, ticksPerSecond, string(label)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	st, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	// Capacity is enforced properly once the client sends its "join"
	// application message (the room doesn't know a presence's claimed
	// name, hence whether it holds a reconnect slot, until then); here
	// we only reject once every seat is taken by a connected occupant.
	if st.openSeatCount() == 0 {
		allConnected := true
		for _, seat := range st.Seats {
			if seat != nil && !seat.Connected {
				allConnected = false
			}
		}
		if allConnected {
			return state, false, "room full"
		}
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	// Seat assignment happens on the application-level "join" message,
	// not on Nakama's connection-level join: only the client's {name}
	// payload tells us which seat, if any, a reconnecting presence
	// previously held.
	return state
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	st, ok := state.(*MatchState)
	if !ok {
		return state
	}
	for _, p := range presences {
		seat, ok := seatForUserID(st, p.GetUserId())
		if !ok {
			continue
		}
		if st.Service.Controller.Deal == nil {
			st.Seats[seat] = nil
		} else {
			st.Seats[seat].Connected = false
			st.Seats[seat].Presence = nil
		}
	}
	if shouldTerminateNoHumans(st) {
		logger.Info("MatchLeave: no humans remain, terminating room.")
		return nil
	}
	dispatchEvents(dispatcher, st, []app.Event{{Kind: app.EventRoomState}})
	return st
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	st, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		mh.dispatchMessage(st, tick, dispatcher, logger, msg)
	}

	fireScheduledTasks(st, tick, dispatcher, logger)

	if shouldTerminateNoHumans(st) {
		logger.Info("MatchLoop: no humans remain, terminating room.")
		return nil
	}
	return st
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Info("MatchTerminate: room closing, grace period %ds.", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, data
}

// dispatchMessage decodes one inbound envelope and routes it to the
// matching use-case, broadcasting the resulting events.
func (mh *matchHandler) dispatchMessage(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var env Envelope
	if err := json.Unmarshal(msg.GetData(), &env); err != nil {
		logger.Warn("dispatchMessage: malformed envelope from %s: %v", msg.GetUserId(), err)
		return
	}

	if env.Event == "join" {
		// MatchData embeds Presence, so msg itself is a valid presence
		// to store for outbound targeting.
		handleJoin(st, dispatcher, msg.GetUserId(), msg, env.Payload)
		return
	}

	seat, ok := seatForUserID(st, msg.GetUserId())
	if !ok {
		logger.Warn("dispatchMessage: event %q from unseated user %s", env.Event, msg.GetUserId())
		return
	}

	switch env.Event {
	case "ready":
		handleReady(st, tick, dispatcher, seat)
	case "start":
		handleStart(st, tick, dispatcher, seat)
	case "playHand":
		handlePlayHand(st, tick, dispatcher, seat, env.Payload)
	case "pass":
		handlePass(st, tick, dispatcher, seat)
	case "tribute":
		handleTribute(st, tick, dispatcher, seat, env.Payload)
	case "returnTribute":
		handleReturnTribute(st, tick, dispatcher, seat, env.Payload)
	case "switchSeat":
		handleSwitchSeat(st, dispatcher, seat, env.Payload)
	case "setMode":
		handleSetMode(st, dispatcher, seat, env.Payload)
	case "forceEnd":
		handleForceEnd(st, dispatcher, seat)
	case "chat":
		handleChat(st, dispatcher, seat, env.Payload)
	default:
		logger.Warn("dispatchMessage: unknown event %q", env.Event)
	}
}

// handleJoin claims a seat for presence: a reconnect by matching name
// against a disconnected seat, otherwise the lowest empty seat.
func handleJoin(st *MatchState, dispatcher runtime.MatchDispatcher, userID string, presence runtime.Presence, raw json.RawMessage) {
	var payload JoinPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Name == "" {
		return
	}
	if len(payload.Name) > 24 {
		payload.Name = payload.Name[:24]
	}

	for i, seat := range st.Seats {
		if seat != nil && !seat.Connected && seat.Name == payload.Name {
			seat.Presence = presence
			seat.Connected = true
			seat.UserID = userID
			dispatchEvents(dispatcher, st, []app.Event{{Kind: app.EventRoomState}})
			if ev, ok := st.Service.SnapshotFor(domain.Seat(i)); ok {
				dispatchEvents(dispatcher, st, []app.Event{ev})
			}
			return
		}
	}

	idx := -1
	for i, seat := range st.Seats {
		if seat == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		data, err := encodeEnvelope("error", app.ErrorPayload{Message: "room full"})
		if err == nil {
			dispatcher.BroadcastMessage(OpEnvelope, data, []runtime.Presence{presence}, nil, true)
		}
		return
	}
	st.Seats[idx] = &Seat{Name: payload.Name, UserID: userID, Presence: presence, Connected: true}
	dispatchEvents(dispatcher, st, []app.Event{{Kind: app.EventRoomState}})
}

func handleReady(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, seat domain.Seat) {
	if st.Seats[seat] == nil {
		return
	}
	st.Seats[seat].Ready = !st.Seats[seat].Ready
	dispatchEvents(dispatcher, st, []app.Event{{Kind: app.EventRoomState}})

	for _, s := range st.Seats {
		if s == nil || !s.Ready {
			return
		}
	}
	doStart(st, tick, dispatcher)
}

// handleStart is the host-only force-start: any empty seats are
// filled with bots before the match begins.
func handleStart(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, seat domain.Seat) {
	if seat != 0 {
		return
	}
	for i, s := range st.Seats {
		if s == nil {
			identity := bot.GetBotIdentity(i)
			st.Seats[i] = &Seat{Name: identity.DisplayName, UserID: identity.UserID, IsBot: true, Connected: true, Ready: true}
			st.Agents[i] = bot.NewAgentForSeat(domain.Seat(i), bot.BotLevel(identity.Difficulty))
		}
	}
	doStart(st, tick, dispatcher)
}

func doStart(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher) {
	if st.Service.Controller.Deal != nil && st.Service.Controller.Deal.Phase != domain.Score {
		return
	}
	st.EngineToken = newEngineToken()
	st.Pending = nil
	events, err := st.Service.StartGame()
	if err != nil {
		return
	}
	dispatchEvents(dispatcher, st, events)
	processAfterDealChange(st, tick, dispatcher)
}

func handlePlayHand(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, seat domain.Seat, raw json.RawMessage) {
	var payload PlayHandPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	events, err := st.Service.PlayCards(seat, payload.Cards)
	dispatchEvents(dispatcher, st, events)
	if err == nil {
		processAfterDealChange(st, tick, dispatcher)
	}
}

func handlePass(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, seat domain.Seat) {
	events, err := st.Service.Pass(seat)
	dispatchEvents(dispatcher, st, events)
	if err == nil {
		processAfterDealChange(st, tick, dispatcher)
	}
}

func handleTribute(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, seat domain.Seat, raw json.RawMessage) {
	var payload TributePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	events, err := st.Service.PayTribute(seat, payload.Card)
	dispatchEvents(dispatcher, st, events)
	if err == nil {
		processAfterDealChange(st, tick, dispatcher)
	}
}

func handleReturnTribute(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, seat domain.Seat, raw json.RawMessage) {
	var payload ReturnTributePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	events, err := st.Service.ReturnTribute(seat, payload.Card)
	dispatchEvents(dispatcher, st, events)
	if err == nil {
		processAfterDealChange(st, tick, dispatcher)
	}
}

// handleSwitchSeat is only honoured before the match's first deal.
func handleSwitchSeat(st *MatchState, dispatcher runtime.MatchDispatcher, seat domain.Seat, raw json.RawMessage) {
	if st.Service.Controller.Deal != nil {
		return
	}
	var payload SwitchSeatPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	target := domain.Seat(payload.Target)
	if target < 0 || target >= domain.NumSeats || st.Seats[target] != nil || st.Seats[seat] == nil {
		return
	}
	st.Seats[target] = st.Seats[seat]
	st.Seats[seat] = nil
	dispatchEvents(dispatcher, st, []app.Event{{Kind: app.EventRoomState}})
}

func handleSetMode(st *MatchState, dispatcher runtime.MatchDispatcher, seat domain.Seat, raw json.RawMessage) {
	if st.Service.Controller.Deal != nil {
		return
	}
	var payload SetModePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	if payload.Mode != "Normal" && payload.Mode != "Skill" {
		return
	}
	st.GameMode = payload.Mode
	dispatchEvents(dispatcher, st, []app.Event{{Kind: app.EventRoomState}})
}

// handleForceEnd is the host-only kill switch: it invalidates every
// scheduled task and resets the match back to Waiting.
func handleForceEnd(st *MatchState, dispatcher runtime.MatchDispatcher, seat domain.Seat) {
	if seat != 0 {
		return
	}
	st.EngineToken = newEngineToken()
	st.Pending = nil
	events := st.Service.ForceEnd()
	dispatchEvents(dispatcher, st, events)
}

func handleChat(st *MatchState, dispatcher runtime.MatchDispatcher, seat domain.Seat, raw json.RawMessage) {
	var payload ChatPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Text == "" {
		return
	}
	name := ""
	if st.Seats[seat] != nil {
		name = st.Seats[seat].Name
	}
	dispatchEvents(dispatcher, st, []app.Event{{
		Kind: app.EventChatMessage,
		Payload: ChatMessagePayload{
			Sender: name,
			Text:   payload.Text,
			Seat:   int(seat),
			Time:   time.Now().Unix(),
		},
	}})
}

// processAfterDealChange resolves every bot tribute/return-tribute
// step immediately, per the deal engine's phase-entry contract, then
// schedules the next delayed task -- a bot turn, or the inter-deal
// grace pause -- for whatever phase the deal settled in.
func processAfterDealChange(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher) {
	deal := st.Service.Controller.Deal
	if deal == nil {
		return
	}
	resolveBotTributes(st, dispatcher)
	resolveBotReturns(st, dispatcher)

	deal = st.Service.Controller.Deal
	if deal == nil {
		return
	}
	switch deal.Phase {
	case domain.Playing:
		scheduleBotTurn(st, tick, deal)
	case domain.Score:
		scheduleGrace(st, tick)
	}
}

func resolveBotTributes(st *MatchState, dispatcher runtime.MatchDispatcher) {
	for {
		deal := st.Service.Controller.Deal
		if deal == nil || deal.Phase != domain.Tribute {
			return
		}
		progressed := false
		for _, seat := range deal.PendingPayers() {
			if !isBotSeat(st, seat) {
				continue
			}
			events, err := st.Service.AutoPayTribute(seat)
			dispatchEvents(dispatcher, st, events)
			if err == nil {
				progressed = true
			}
			break
		}
		if !progressed {
			return
		}
	}
}

func resolveBotReturns(st *MatchState, dispatcher runtime.MatchDispatcher) {
	for {
		deal := st.Service.Controller.Deal
		if deal == nil || deal.Phase != domain.ReturnTribute {
			return
		}
		progressed := false
		for _, seat := range deal.PendingReturners() {
			if !isBotSeat(st, seat) {
				continue
			}
			events, err := st.Service.AutoReturnTribute(seat)
			dispatchEvents(dispatcher, st, events)
			if err == nil {
				progressed = true
			}
			break
		}
		if !progressed {
			return
		}
	}
}

func scheduleBotTurn(st *MatchState, tick int64, deal *domain.DealState) {
	if len(deal.Winners) >= 3 || !isBotSeat(st, deal.CurrentTurn) {
		return
	}
	delay := int64(st.cfg.BotDecisionDelaySeconds) * ticksPerSecond
	st.Pending = append(st.Pending, scheduledTask{Kind: "bot", Token: st.EngineToken, FireAtTick: tick + delay, Seat: deal.CurrentTurn})
}

func scheduleGrace(st *MatchState, tick int64) {
	delay := int64(st.cfg.InterDealGraceSeconds) * ticksPerSecond
	st.Pending = append(st.Pending, scheduledTask{Kind: "grace", Token: st.EngineToken, FireAtTick: tick + delay})
}

// fireScheduledTasks runs every due task whose captured token still
// matches the room's current engine; stale tasks are simply dropped.
func fireScheduledTasks(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if len(st.Pending) == 0 {
		return
	}
	var due, remaining []scheduledTask
	for _, task := range st.Pending {
		if task.FireAtTick <= tick {
			due = append(due, task)
		} else {
			remaining = append(remaining, task)
		}
	}
	st.Pending = remaining

	for _, task := range due {
		if task.Token != st.EngineToken {
			continue
		}
		switch task.Kind {
		case "bot":
			fireBotTurn(st, tick, dispatcher, logger, task.Seat)
		case "grace":
			doStart(st, tick, dispatcher)
		}
	}
}

func fireBotTurn(st *MatchState, tick int64, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat domain.Seat) {
	deal := st.Service.Controller.Deal
	if deal == nil || deal.Phase != domain.Playing || deal.CurrentTurn != seat {
		return
	}
	agent := st.Agents[seat]
	if agent == nil {
		return
	}
	var target *domain.Combination
	if deal.LastPlay != nil && deal.LastPlay.Player != seat {
		target = &deal.LastPlay.Combination
	}
	cards, pass := agent.DecidePlay(deal.Hands[seat], deal.Level, target)

	var events []app.Event
	var err error
	if pass {
		events, err = st.Service.Pass(seat)
	} else {
		events, err = st.Service.PlayCards(seat, tagsOf(cards))
	}
	if err != nil {
		logger.Warn("fireBotTurn: bot seat %d produced an illegal move (%v), falling back to pass", seat, err)
		events, _ = st.Service.Pass(seat)
	}
	dispatchEvents(dispatcher, st, events)
	processAfterDealChange(st, tick, dispatcher)
}

func isBotSeat(st *MatchState, seat domain.Seat) bool {
	return st.Seats[seat] != nil && st.Seats[seat].IsBot
}

func seatForUserID(st *MatchState, userID string) (domain.Seat, bool) {
	for i, seat := range st.Seats {
		if seat != nil && seat.UserID == userID {
			return domain.Seat(i), true
		}
	}
	return 0, false
}

// dispatchEvents turns each app.Event into a wire envelope and
// broadcasts it to its recipients, or to the whole room when
// Recipients is empty. A nil Payload on a roomState event is the
// service layer's way of saying "recompute this from room state",
// since only the port knows seat occupancy.
func dispatchEvents(dispatcher runtime.MatchDispatcher, st *MatchState, events []app.Event) {
	for _, ev := range events {
		payload := ev.Payload
		if ev.Kind == app.EventRoomState && payload == nil {
			payload = roomStatePayload(st)
		}
		data, err := encodeEnvelope(string(ev.Kind), payload)
		if err != nil {
			continue
		}
		dispatcher.BroadcastMessage(OpEnvelope, data, presencesFor(st, ev.Recipients), nil, true)
	}
}

func presencesFor(st *MatchState, seats []domain.Seat) []runtime.Presence {
	if len(seats) == 0 {
		return nil
	}
	out := make([]runtime.Presence, 0, len(seats))
	for _, s := range seats {
		if seat := st.Seats[s]; seat != nil && seat.Presence != nil {
			out = append(out, seat.Presence)
		}
	}
	return out
}

func roomStatePayload(st *MatchState) RoomStatePayload {
	var payload RoomStatePayload
	payload.GameMode = st.GameMode
	for i, seat := range st.Seats {
		info := SeatInfo{Seat: i}
		if seat != nil {
			info.Name = seat.Name
			info.IsBot = seat.IsBot
			info.Ready = seat.Ready || seat.IsBot
			info.Occupied = true
		}
		payload.Seats[i] = info
	}
	return payload
}

func tagsOf(cards []domain.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Tag
	}
	return out
}
