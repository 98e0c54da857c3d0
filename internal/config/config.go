package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig holds the deal-pacing constants for every room. The match
// handler reads InterDealGraceSeconds (the pause before the next deal)
// and BotDecisionDelaySeconds (the delay before a scheduled bot
// decision fires). TurnDurationSeconds and BotAutoFillDelaySeconds are
// loaded but not read by any room code: there is no human turn timer
// and no delayed bot fill.
type GameConfig struct {
	TurnDurationSeconds      int `json:"turn_duration_seconds"`
	BotDecisionDelaySeconds  int `json:"bot_decision_delay_seconds"`
	InterDealGraceSeconds    int `json:"inter_deal_grace_seconds"`
	BotAutoFillDelaySeconds  int `json:"bot_auto_fill_delay_seconds"`
}

// Default returns the built-in fallback used when no config file is
// mounted for a deployment.
func Default() GameConfig {
	return GameConfig{
		TurnDurationSeconds:     30,
		BotDecisionDelaySeconds: 1,
		InterDealGraceSeconds:   3,
		BotAutoFillDelaySeconds: 10,
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the deal-pacing configuration from path. Safe
// to call from multiple goroutines; only the first call's path takes
// effect.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or the built-in
// default if none was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}
