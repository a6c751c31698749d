// Package config loads warden's settings from a YAML file overlaid with
// WARDEN_* environment variables.
//
// Top-level keys keep the names operators know from the host's own automation
// settings (ClosedownAt, ReadOnlyApi, ...). Infrastructure settings live in
// lower-case sections (host, http, redis, log, tasks).
package config

import (
	"time"

	"github.com/aretw0/warden/pkg/adapters/process"
)

// DefaultCommandPort is where the control channel listens unless overridden.
const DefaultCommandPort = 7462

// Config is the decoded settings tree.
type Config struct {
	Instance string `mapstructure:"Instance"`
	HostKind string `mapstructure:"HostKind"`
	FIX      bool   `mapstructure:"FIX"`

	// Login
	LoginID            string `mapstructure:"IbLoginId"`
	Password           string `mapstructure:"IbPassword"`
	TradingMode        string `mapstructure:"TradingMode"`
	ExistingSession    string `mapstructure:"ExistingSessionDetectedAction"`
	ReadOnlyLogin      bool   `mapstructure:"ReadOnlyLogin"`
	SecondFactorDevice string `mapstructure:"SecondFactorDevice"`

	// Dialogs
	IncomingConnection       string `mapstructure:"AcceptIncomingConnectionAction"`
	AllowBlindTrading        bool   `mapstructure:"AllowBlindTrading"`
	AcceptNonBrokerageNotice bool   `mapstructure:"AcceptNonBrokerageAccountWarning"`
	DismissPasswordExpiry    bool   `mapstructure:"DismissPasswordExpiryWarning"`

	// API configuration applied through the configuration dialog.
	ReadOnlyAPI          *bool           `mapstructure:"ReadOnlyApi"`
	LocalhostOnly        *bool           `mapstructure:"AllowConnectionsFromLocalhostOnly"`
	APIPort              int             `mapstructure:"OverrideTwsApiPort"`
	MasterClientID       *int            `mapstructure:"OverrideTwsMasterClientID"`
	SendMarketDataInLots *bool           `mapstructure:"SendMarketDataInLotsForUSstocks"`
	ResetOrderIDs        bool            `mapstructure:"ResetOrderIdsAtStart"`
	Precautions          map[string]bool `mapstructure:"ApiPrecautions"`

	// Schedule
	ClosedownAt     string `mapstructure:"ClosedownAt"`
	ColdRestartTime string `mapstructure:"ColdRestartTime"`
	AutoLogoffTime  string `mapstructure:"AutoLogoffTime"`
	AutoRestartTime string `mapstructure:"AutoRestartTime"`

	// Control channel
	CommandServerPort int      `mapstructure:"CommandServerPort"`
	BindAddress       string   `mapstructure:"BindAddress"`
	ControlFrom       []string `mapstructure:"ControlFrom"`
	CommandPrompt     string   `mapstructure:"CommandPrompt"`

	Host  process.Config `mapstructure:"host"`
	HTTP  HTTPConfig     `mapstructure:"http"`
	Redis RedisConfig    `mapstructure:"redis"`
	Log   LogConfig      `mapstructure:"log"`
	Tasks TaskConfig     `mapstructure:"tasks"`

	DispatchBudget time.Duration `mapstructure:"DispatchBudget"`

	// StateDir keeps status and transition history on disk when redis is
	// not configured.
	StateDir string `mapstructure:"StateDir"`

	// Unused lists keys present in the input that no field consumed.
	Unused []string `mapstructure:"-"`
}

// HTTPConfig enables the status and metrics API. An empty address disables it.
type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

// RedisConfig enables the shared status store and transition lock.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Lock     bool          `mapstructure:"lock"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TaskConfig tunes configuration-dialog task retries.
type TaskConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Attempts int           `mapstructure:"attempts"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() map[string]any {
	return map[string]any{
		"Instance":                       "default",
		"HostKind":                       "tws",
		"ExistingSessionDetectedAction":  "manual",
		"AcceptIncomingConnectionAction": "manual",
		"CommandServerPort":              DefaultCommandPort,
		"BindAddress":                    "127.0.0.1",
		"DispatchBudget":                 "2s",
		"host": map[string]any{
			"grace": process.DefaultGrace.String(),
		},
		"redis": map[string]any{
			"prefix": "warden:",
		},
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"tasks": map[string]any{
			"interval": "1s",
			"attempts": 60,
		},
	}
}
