package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries the process configuration. Everything comes from the
// environment; there is no on-disk state.
type Config struct {
	// Port is the TCP port the server listens on.
	Port int
	// BotTurnDelay is how long a CPU player pretends to think before
	// acting on its turn.
	BotTurnDelay time.Duration
	// BotMatchDelay is the reaction time before a CPU player slaps an
	// out-of-turn match on a fresh discard.
	BotMatchDelay time.Duration
}

const (
	defaultPort           = 3001
	defaultBotTurnDelayMS = 1500
	defaultBotMatchDelMS  = 700
)

// FromEnv reads the configuration, falling back to defaults for unset or
// malformed values.
func FromEnv() Config {
	return Config{
		Port:          envInt("PORT", defaultPort),
		BotTurnDelay:  time.Duration(envInt("REDKING_BOT_DELAY_MS", defaultBotTurnDelayMS)) * time.Millisecond,
		BotMatchDelay: time.Duration(envInt("REDKING_BOT_MATCH_DELAY_MS", defaultBotMatchDelMS)) * time.Millisecond,
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
