package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RpcCreateRoomID is the Nakama RPC id clients call to open a new
// room. Rooms are never matched automatically across clients -- a
// caller shares the returned matchId out of band with the other
// three seats, who join it directly by id.
const RpcCreateRoomID = "guandan_create_room"

// RpcCreateRoom creates a fresh, empty authoritative match and
// returns its id.
func RpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	matchID, err := nk.MatchCreate(ctx, MatchNameGuandan, nil)
	if err != nil {
		logger.Error("RpcCreateRoom: failed to create match: %v", err)
		return "", err
	}
	logger.Info("RpcCreateRoom: created room %s", matchID)
	return matchID, nil
}
