package backend

import (
	"fmt"
	"time"

	"kharcha/internal/config"
	"kharcha/internal/store/google"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// DataDir holds the vocabulary seed files used by memory and sqlite.
	DataDir string

	SQLiteDBPath string

	Sheets google.Config
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	bt := BackendType(c.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:         bt,
		DataDir:      c.DataDir,
		SQLiteDBPath: c.SQLiteDBPath,
		Sheets:       SheetsConfig(c),
	}, nil
}

// SheetsConfig extracts the spreadsheet settings, which the mirror worker
// also uses on its own.
func SheetsConfig(c *config.Config) google.Config {
	poll := c.SheetsPollInterval
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return google.Config{
		SpreadsheetID:   c.GoogleSpreadsheetID,
		ExpensesSheet:   c.GoogleSheetName,
		SettingsSheet:   c.GoogleSettingsSheetName,
		CredentialsJSON: c.GoogleServiceAccountJSON,
		CredentialsFile: c.GoogleServiceAccountFile,
		PollInterval:    poll,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}
