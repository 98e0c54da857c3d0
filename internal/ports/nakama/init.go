package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcCreateRoomID, RpcCreateRoom); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameGuandan, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return NewMatch(), nil
	}); err != nil {
		return err
	}

	logger.Info("Guandan Go module loaded.")
	return nil
}
