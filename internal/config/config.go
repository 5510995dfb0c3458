// Package config loads and validates the monitor configuration from a YAML
// file with SOLANA_MONITOR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

type Config struct {
	RPCURL     string `mapstructure:"rpc_url"`
	WSURL      string `mapstructure:"ws_url"`
	Commitment string `mapstructure:"commitment"`

	// Program overrides for devnet or forked deployments; empty means the
	// mainnet Raydium and SPL token programs.
	AmmProgram     string `mapstructure:"amm_program"`
	AmmAuthority   string `mapstructure:"amm_authority"`
	ClmmProgram    string `mapstructure:"clmm_program"`
	VaultProgram   string `mapstructure:"vault_program"`
	CatalogBaseURL string `mapstructure:"catalog_base_url"`

	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`

	// Minimum spacing between emitted metric updates per pool; zero emits
	// every derivation.
	EmitInterval time.Duration `mapstructure:"emit_interval"`

	Log LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

const (
	DefaultCommitment   = "confirmed"
	DefaultCatalogTTL   = 5 * time.Minute
	DefaultEmitInterval = time.Second
	DefaultLogLevel     = "info"
)

func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"commitment":       DefaultCommitment,
		"catalog_ttl":      DefaultCatalogTTL,
		"emit_interval":    DefaultEmitInterval,
		"log.level":        DefaultLogLevel,
		"log.max_size_mb":  100,
		"log.max_backups":  3,
		"log.max_age_days": 7,
		"log.console":      true,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("SOLANA_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url")
	}
	if cfg.WSURL == "" {
		return errors.New("missing ws_url")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("rpc_url: %w", err)
	}
	if err := validateURL(cfg.WSURL, "ws"); err != nil {
		return fmt.Errorf("ws_url: %w", err)
	}

	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}

	if cfg.CatalogTTL <= 0 {
		return errors.New("catalog_ttl must be positive")
	}
	if cfg.EmitInterval < 0 {
		return errors.New("emit_interval must not be negative")
	}

	for name, key := range map[string]string{
		"amm_program":   cfg.AmmProgram,
		"amm_authority": cfg.AmmAuthority,
		"clmm_program":  cfg.ClmmProgram,
		"vault_program": cfg.VaultProgram,
	} {
		if key == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(key); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, key, err)
		}
	}

	return nil
}

func validateURL(rawURL, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return fmt.Errorf("URL scheme must start with %q", protocol)
	}
	return nil
}

// ProgramKey resolves an optional base58 override against a fallback.
// Validation already proved the override parses.
func ProgramKey(override string, fallback solana.PublicKey) solana.PublicKey {
	if override == "" {
		return fallback
	}
	return solana.MustPublicKeyFromBase58(override)
}
