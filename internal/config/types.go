package config

// Config is the full on-disk configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// The four job lists may also be supplied (or overridden) via environment
// variables as comma-separated strings; see Overlay.
type Config struct {
	Logging    LoggingConfig    `json:"logging"`
	Job        JobConfig        `json:"job"`
	Trenitalia TrenitaliaConfig `json:"trenitalia"`
	Mail       MailConfig       `json:"mail"`
	Telegram   *TelegramConfig  `json:"telegram,omitempty"`
	API        *APIConfig       `json:"api,omitempty"`
	Storage    *StorageConfig   `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// JobConfig drives the recurring train check.
//
// Schedule accepts either a cron spec ("*/10 * * * *") or a Go duration
// ("10s"). Dates are calendar days in the format the upstream API expects.
type JobConfig struct {
	Schedule      string   `json:"schedule"`
	Dates         []string `json:"dates"`
	Categories    []string `json:"categories"`
	Denominations []string `json:"denominations"`
	Recipients    []string `json:"recipients"`

	DepartureLocationID int `json:"departure_location_id,omitempty"`
	ArrivalLocationID   int `json:"arrival_location_id,omitempty"`
}

type TrenitaliaConfig struct {
	APIURL string `json:"api_url"`
	// Timeout bounds a single search request. "0s" disables it.
	Timeout string `json:"timeout,omitempty"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"` // prefer EMAIL_PASS in .env
	FromName string `json:"from_name,omitempty"`
	// RatePerSec limits outbound sends. 0 means default.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// TelegramConfig enables an optional send-only announcement channel.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
}

// APIConfig controls the admin HTTP surface.
//
// Prefer binding to localhost; the server has no authentication.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:8080"
}

// StorageConfig controls the optional persistence layer.
//
// Driver values:
//   - "" or "none": disabled (in-memory dedup only)
//   - "sqlite": SQLite database file (build with -tags sqlite)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}
