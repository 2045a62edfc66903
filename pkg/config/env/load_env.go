package env

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file.
// It uses the ENV_PATH environment variable to determine the path to the .env file.
// A missing default file is not an error; a missing ENV_PATH file is.
// Variables already present in the environment are never overridden.
func LoadDotEnv(defaultPath string) error {
	envPath, explicit := os.LookupEnv("ENV_PATH")
	if !explicit || envPath == "" {
		envPath = defaultPath
		explicit = false
	}

	err := godotenv.Load(envPath)
	if err != nil {
		if explicit {
			slog.Error("Failed to load environment file", "path", envPath, "error", err)
			return err
		}
		slog.Debug("Skipping .env ...", "path", envPath)
	}

	return nil
}
