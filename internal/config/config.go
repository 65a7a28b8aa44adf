// Package config provides Viper-based configuration loading for the Kniffel server.
package config

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// ServerConfig holds process-wide settings.
type ServerConfig struct {
	// ShutdownTimeout bounds how long each service may take to stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelnetConfig configures the text scorecard listener. Zero timeouts
// disable the corresponding deadline.
type TelnetConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is how long a seat may stay silent before it is warned.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// IdleGracePeriod follows the warning; silence through it ends the session.
	IdleGracePeriod time.Duration `mapstructure:"idle_grace_period"`
}

// Addr joins Host and Port.
func (t TelnetConfig) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// HTTPConfig holds JSON API listener settings.
type HTTPConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Addr joins Host and Port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// HealthConfig holds the gRPC health service settings.
type HealthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

// Addr joins GRPCHost and GRPCPort.
func (h HealthConfig) Addr() string {
	return net.JoinHostPort(h.GRPCHost, strconv.Itoa(h.GRPCPort))
}

// LoggingConfig selects the zap level (debug, info, warn, error) and
// encoder (json, console).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScoreboardConfig shapes every new scoreboard.
type ScoreboardConfig struct {
	// DefaultPlayers is how many players a new or reset scoreboard seats.
	DefaultPlayers int `mapstructure:"default_players"`
	// PlayerNamePrefix is used for generated names ("Player 4").
	PlayerNamePrefix string `mapstructure:"player_name_prefix"`
	// MaxPlayers caps add-player at the boundaries; 0 means unlimited.
	MaxPlayers int `mapstructure:"max_players"`
	// SheetFile is an optional category sheet YAML; empty uses the embedded sheet.
	SheetFile string `mapstructure:"sheet_file"`
}

// DiceConfig selects the randomness source and boundary gates.
type DiceConfig struct {
	// Source is "crypto" or "seeded".
	Source string `mapstructure:"source"`
	// Seed feeds the seeded source.
	Seed uint64 `mapstructure:"seed"`
	// HoldBeforeFirstRoll lets the boundaries accept hold before the first roll.
	HoldBeforeFirstRoll bool `mapstructure:"hold_before_first_roll"`
}

// TablesConfig bounds the table manager.
type TablesConfig struct {
	// MaxTables caps concurrently open tables; 0 means unlimited.
	MaxTables int `mapstructure:"max_tables"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Telnet     TelnetConfig     `mapstructure:"telnet"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Health     HealthConfig     `mapstructure:"health"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Scoreboard ScoreboardConfig `mapstructure:"scoreboard"`
	Dice       DiceConfig       `mapstructure:"dice"`
	Tables     TablesConfig     `mapstructure:"tables"`
}

// Validate checks every section and reports all violations at once.
//
// Postcondition: Returns nil, or an error whose multierr.Errors lists one
// entry per violated setting.
func (c Config) Validate() error {
	err := multierr.Combine(
		validateServer(c.Server),
		validateTelnet(c.Telnet),
		validateHTTP(c.HTTP),
		validateHealth(c.Health),
		validateLogging(c.Logging),
		validateScoreboard(c.Scoreboard),
		validateDice(c.Dice),
		validateTables(c.Tables),
	)
	if !c.Telnet.Enabled && !c.HTTP.Enabled {
		err = multierr.Append(err, errors.New("at least one of telnet.enabled or http.enabled must be true"))
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func checkPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return nil
}

// checkDurations rejects negative durations, keyed by setting name.
func checkDurations(section string, d map[string]time.Duration) error {
	var err error
	for _, key := range slices.Sorted(maps.Keys(d)) {
		if d[key] < 0 {
			err = multierr.Append(err, fmt.Errorf("%s.%s must not be negative, got %s", section, key, d[key]))
		}
	}
	return err
}

func oneOf(key, got string, allowed ...string) error {
	if slices.Contains(allowed, got) {
		return nil
	}
	return fmt.Errorf("%s must be one of [%s], got %q", key, strings.Join(allowed, ", "), got)
}

func validateServer(s ServerConfig) error {
	return checkDurations("server", map[string]time.Duration{"shutdown_timeout": s.ShutdownTimeout})
}

func validateTelnet(t TelnetConfig) error {
	if !t.Enabled {
		return nil
	}
	return multierr.Append(checkPort("telnet.port", t.Port), checkDurations("telnet", map[string]time.Duration{
		"read_timeout":      t.ReadTimeout,
		"write_timeout":     t.WriteTimeout,
		"idle_timeout":      t.IdleTimeout,
		"idle_grace_period": t.IdleGracePeriod,
	}))
}

func validateHTTP(h HTTPConfig) error {
	if !h.Enabled {
		return nil
	}
	return multierr.Append(checkPort("http.port", h.Port), checkDurations("http", map[string]time.Duration{
		"read_timeout":  h.ReadTimeout,
		"write_timeout": h.WriteTimeout,
	}))
}

func validateHealth(h HealthConfig) error {
	if !h.Enabled {
		return nil
	}
	var err error
	if h.GRPCHost == "" {
		err = errors.New("health.grpc_host must not be empty")
	}
	return multierr.Append(err, checkPort("health.grpc_port", h.GRPCPort))
}

func validateLogging(l LoggingConfig) error {
	return multierr.Append(
		oneOf("logging.level", l.Level, "debug", "info", "warn", "error"),
		oneOf("logging.format", l.Format, "json", "console"),
	)
}

func validateScoreboard(s ScoreboardConfig) error {
	var err error
	if s.DefaultPlayers < 0 {
		err = multierr.Append(err, fmt.Errorf("scoreboard.default_players must be >= 0, got %d", s.DefaultPlayers))
	}
	if s.MaxPlayers < 0 {
		err = multierr.Append(err, fmt.Errorf("scoreboard.max_players must be >= 0, got %d", s.MaxPlayers))
	}
	if s.MaxPlayers > 0 && s.DefaultPlayers > s.MaxPlayers {
		err = multierr.Append(err, fmt.Errorf("scoreboard.default_players (%d) exceeds scoreboard.max_players (%d)", s.DefaultPlayers, s.MaxPlayers))
	}
	if strings.TrimSpace(s.PlayerNamePrefix) == "" {
		err = multierr.Append(err, errors.New("scoreboard.player_name_prefix must not be empty"))
	}
	return err
}

func validateDice(d DiceConfig) error {
	return oneOf("dice.source", d.Source, "crypto", "seeded")
}

func validateTables(t TablesConfig) error {
	if t.MaxTables < 0 {
		return fmt.Errorf("tables.max_tables must be >= 0, got %d", t.MaxTables)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// Default returns the built-in configuration with environment overrides applied
// and no config file.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Default() (Config, error) {
	return LoadFromViper(newViper())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with KNIFFEL_ prefix
	v.SetEnvPrefix("KNIFFEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("telnet.enabled", true)
	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "0s")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.idle_timeout", "15m")
	v.SetDefault("telnet.idle_grace_period", "1m")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.grpc_host", "127.0.0.1")
	v.SetDefault("health.grpc_port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scoreboard.default_players", 3)
	v.SetDefault("scoreboard.player_name_prefix", "Player")
	v.SetDefault("scoreboard.max_players", 8)
	v.SetDefault("scoreboard.sheet_file", "")

	v.SetDefault("dice.source", "crypto")
	v.SetDefault("dice.seed", 0)
	v.SetDefault("dice.hold_before_first_roll", false)

	v.SetDefault("tables.max_tables", 256)
}
