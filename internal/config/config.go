package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	DBPath     string
	CookieFile string
}

func Default() Config {
	// .env optionnel à côté du binaire; les vraies variables d'env gagnent.
	_ = godotenv.Load()

	return Config{
		Addr:       envOr("TAW_ADDR", "127.0.0.1:8080"),
		DBPath:     envOr("TAW_DB_PATH", "taw.db"),
		CookieFile: envOr("TAW_COOKIES_PATH", "cookies.txt"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
