package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	envNoDotenv   = "INSIGHT_NO_DOTENV"
	envOverload   = "INSIGHT_DOTENV_OVERLOAD"
	envDotenvFile = "INSIGHT_ENV_FILE"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file into the process environment once.
// INSIGHT_ENV_FILE names an explicit file; otherwise .env files are searched
// from the project root. Existing variables win unless
// INSIGHT_DOTENV_OVERLOAD=1.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv(envNoDotenv) == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv(envOverload) == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv(envDotenvFile); envFile != "" {
		_ = load(envFile)
		return
	}
	if root, err := ProjectRoot(); err == nil {
		if p := filepath.Join(root, ".env"); fileExists(p) {
			_ = load(p)
			return
		}
	}
	_ = load(".env")
}
