package nakama

import "github.com/google/uuid"

// newEngineToken mints an identity for the room's current Deal Engine
// (or its owning match). Every scheduled task -- a bot decision, the
// inter-deal grace timer -- captures the token in effect when it was
// queued; if forceEnd or a deal transition mints a new token before
// the task fires, the stale task's captured token no longer matches
// and the task no-ops instead of acting on a detached engine.
func newEngineToken() string {
	return uuid.New().String()
}
