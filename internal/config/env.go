package config

import "github.com/caarlos0/env/v11"

// Env holds the secret-bearing environment variables. These never go
// through the YAML config so they cannot end up in a checked-in file.
type Env struct {
	// SheetsCredentials is the Google service-account JSON, passed
	// whole through the environment.
	SheetsCredentials string `env:"GOOGLE_SHEETS_CREDENTIALS"`

	// JWTSecret signs API tokens.
	JWTSecret string `env:"TRACKER_JWT_SECRET"`

	// AdminPassword is the password for the admin API user.
	AdminPassword string `env:"TRACKER_ADMIN_PASSWORD"`
}

// ParseEnv reads the secret environment variables.
func ParseEnv() (Env, error) {
	var e Env
	err := env.Parse(&e)
	return e, err
}
