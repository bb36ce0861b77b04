// Package secrets resolves credentials without ever logging or persisting
// them.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoCredentials is returned when neither the environment variable nor
// the fallback file provides service-account credentials.
var ErrNoCredentials = errors.New("no Google Sheets credentials found: set GOOGLE_SHEETS_CREDENTIALS or provide a service account file")

// CredentialsJSON returns the Google service-account key. The value passed
// through the environment wins; the fallback file is only consulted when
// the environment is empty.
func CredentialsJSON(envValue, filePath string) ([]byte, error) {
	if envValue != "" {
		if !json.Valid([]byte(envValue)) {
			return nil, errors.New("GOOGLE_SHEETS_CREDENTIALS is not valid JSON")
		}
		return []byte(envValue), nil
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	return nil, ErrNoCredentials
}
