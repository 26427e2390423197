package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Addr  string
	Rules game.Config
}

func Default() Config {
	return Config{
		Addr:  ":8080",
		Rules: game.DefaultConfig(),
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	}
	loadInt(&cfg.Rules.MaxPlayers, "MAX_PLAYERS")
	loadInt(&cfg.Rules.PowerOptions, "POWER_OPTIONS")
	loadInt(&cfg.Rules.PoisonRoomTurns, "POISON_ROOM_TURNS")
	loadInt(&cfg.Rules.PoisonCountdown, "POISON_COUNTDOWN")
	loadInt(&cfg.Rules.SearchReward, "SEARCH_REWARD")
	loadInt(&cfg.Rules.BarricadeRooms, "BARRICADE_ROOMS")
	loadInt(&cfg.Rules.DecoyRooms, "DECOY_ROOMS")
	if raw := os.Getenv("FRESH_POWER_DRAWS"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Rules.FreshPowerDraws = value
		}
	}
	return cfg
}

func loadInt(dest *int, name string) {
	if raw := os.Getenv(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			*dest = value
		}
	}
}
