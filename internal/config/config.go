package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded from a YAML file with
// environment overrides.
type Config struct {
	// Chain access.
	RPCURL string `mapstructure:"rpc_url"`
	WSURL  string `mapstructure:"ws_url"`

	// On-chain identity: the AMM program to watch and this deployment's
	// configuration key used for admission filtering.
	ProgramID string `mapstructure:"program_id"`
	DeployKey string `mapstructure:"deploy_key"`

	// Storage.
	PostgresURL   string `mapstructure:"postgres_url"`
	ClickHouseURL string `mapstructure:"clickhouse_url"` // optional, disables tick history when empty

	// Remote transaction signer for fee claims and reward payouts.
	SignerURL       string `mapstructure:"signer_url"`
	SignerPublicKey string `mapstructure:"signer_public_key"`

	// Fee economics.
	FeeBps              int64  `mapstructure:"fee_bps"`
	DefaultSharePercent string `mapstructure:"default_share_percent"`

	// Scheduling.
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	ClaimCooldown   time.Duration `mapstructure:"claim_cooldown"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`

	// HTTP gateway.
	ListenAddr string `mapstructure:"listen_addr"`

	LogLevel string `mapstructure:"log_level"`
}

const (
	DefaultFeeBps          = 100
	DefaultSharePercent    = "50"
	DefaultSweepInterval   = time.Hour
	DefaultClaimCooldown   = time.Hour
	DefaultMonitorInterval = 30 * time.Second
	DefaultListenAddr      = ":8080"
	DefaultLogLevel        = "info"
)

// Load reads the configuration file at path, applies defaults and
// LAUNCHPAD_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"fee_bps":               DefaultFeeBps,
		"default_share_percent": DefaultSharePercent,
		"sweep_interval":        DefaultSweepInterval,
		"claim_cooldown":        DefaultClaimCooldown,
		"monitor_interval":      DefaultMonitorInterval,
		"listen_addr":           DefaultListenAddr,
		"log_level":             DefaultLogLevel,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if err := checkScheme(c.RPCURL, "http"); err != nil {
		return errors.New("rpc_url must be an http(s) URL")
	}
	if c.WSURL == "" {
		return errors.New("ws_url is required")
	}
	if err := checkScheme(c.WSURL, "ws"); err != nil {
		return errors.New("ws_url must be a ws(s) URL")
	}
	if c.ProgramID == "" {
		return errors.New("program_id is required")
	}
	if c.DeployKey == "" {
		return errors.New("deploy_key is required")
	}
	if c.PostgresURL == "" {
		return errors.New("postgres_url is required")
	}
	if c.SignerURL == "" {
		return errors.New("signer_url is required")
	}
	if c.SignerPublicKey == "" {
		return errors.New("signer_public_key is required")
	}
	if c.FeeBps <= 0 || c.FeeBps >= 10_000 {
		return errors.New("fee_bps must be between 1 and 9999")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep_interval must be positive")
	}
	if c.ClaimCooldown < 0 {
		return errors.New("claim_cooldown must not be negative")
	}
	if c.MonitorInterval <= 0 {
		return errors.New("monitor_interval must be positive")
	}
	return nil
}

func checkScheme(rawURL, prefix string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(parsed.Scheme, prefix) {
		return errors.New("unexpected URL scheme")
	}
	return nil
}
