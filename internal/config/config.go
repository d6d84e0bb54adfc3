// Package config layers a bitvm.yaml file under environment variables
// via viper, the way btcq-org-qbtc's config.GetConfig
// layers a JSON file under AutomaticEnv. Credentials never get a
// committed default: the teacher's requireEnv/getEnvOrDefault split
// survives as the fallback viper falls to when no config file supplies
// a value.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Bond holds the per-round value schedule from §4.I: the bonded amount
// A, the per-tx fee f, the dust limit d, and the bisection length L.
type Bond struct {
	Amount      int64 `mapstructure:"amount"`
	Fee         int64 `mapstructure:"fee"`
	DustLimit   int64 `mapstructure:"dust_limit"`
	Bisection   int   `mapstructure:"bisection_length"`
	TimelockGap int64 `mapstructure:"timelock_blocks"`
}

// Ledger holds the regtest RPC connection settings the
// internal/ledger.RegtestClient needs.
type Ledger struct {
	Host string `mapstructure:"host"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

// Store holds the session-store Postgres connection string.
type Store struct {
	ConnString string `mapstructure:"conn_string"`
}

// Dashboard holds the spectator HTTP server's listen settings.
type Dashboard struct {
	Addr           string `mapstructure:"addr"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// Config is the full set of operator-tunable knobs. Bond.Bisection
// defaults to 10 per spec.md's example scenario; every other field has
// a safe non-secret default except Ledger's credentials, which must be
// supplied via file, env, or flag — never silently defaulted.
type Config struct {
	Bond      Bond      `mapstructure:"bond"`
	Ledger    Ledger    `mapstructure:"ledger"`
	Store     Store     `mapstructure:"store"`
	Dashboard Dashboard `mapstructure:"dashboard"`
}

// Default returns the baseline configuration: a 10-round bisection over
// a 1,000,000 satoshi bond, local regtest defaults for everything but
// credentials.
func Default() *Config {
	return &Config{
		Bond: Bond{
			Amount:      1_000_000,
			Fee:         500,
			DustLimit:   546,
			Bisection:   10,
			TimelockGap: 10,
		},
		Ledger: Ledger{
			Host: "localhost:18443",
		},
		Store: Store{
			ConnString: "",
		},
		Dashboard: Dashboard{
			Addr:           ":5339",
			AllowedOrigins: "",
		},
	}
}

// Load reads configPath (a file or a directory containing bitvm.yaml)
// if given, then layers environment variables (BITVM_ prefix,
// underscores for nesting) on top, the way GetConfig layers
// viper.AutomaticEnv() over a JSON file. Missing config file is not an
// error: Default() plus env/flags is a legitimate deployment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BITVM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	mustBindDefaults(v, cfg)

	if configPath != "" {
		info, err := os.Stat(configPath)
		if err != nil {
			return nil, fmt.Errorf("accessing config path %s: %w", configPath, err)
		}
		if info.IsDir() {
			v.SetConfigName("bitvm")
			v.AddConfigPath(configPath)
		} else {
			v.SetConfigFile(configPath)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	applyCredentialFallbacks(cfg)

	return cfg, nil
}

// applyCredentialFallbacks fills in Ledger.User/Pass from the
// environment directly when neither a config file nor BITVM_LEDGER_*
// env vars supplied them, preserving the teacher's "fail loud, not
// silent" posture for RPC credentials: Validate() below still rejects
// an empty user/pass, it just gives plain BTC_RPC_* env vars one more
// chance to supply them first.
func applyCredentialFallbacks(cfg *Config) {
	if cfg.Ledger.Host == "" {
		cfg.Ledger.Host = getEnvOrDefault("BTC_RPC_HOST", "localhost:18443")
	}
	if cfg.Ledger.User == "" {
		cfg.Ledger.User = os.Getenv("BTC_RPC_USER")
	}
	if cfg.Ledger.Pass == "" {
		cfg.Ledger.Pass = os.Getenv("BTC_RPC_PASS")
	}
	if cfg.Store.ConnString == "" {
		cfg.Store.ConnString = os.Getenv("DATABASE_URL")
	}
}

// Validate checks the invariants §4.I and the Open Questions resolution
// require before any transaction gets built: a bisection-length bond
// that can actually survive L rounds of fee+dust deduction, and
// non-empty ledger credentials.
func (c *Config) Validate() error {
	if c.Bond.Bisection <= 0 {
		return fmt.Errorf("bond.bisection_length must be positive, got %d", c.Bond.Bisection)
	}
	need := int64(2*c.Bond.Bisection) * (c.Bond.Fee + c.Bond.DustLimit)
	if c.Bond.Amount < need {
		return fmt.Errorf("bond.amount %d is insufficient for %d rounds at fee+dust %d (need >= %d)",
			c.Bond.Amount, c.Bond.Bisection, c.Bond.Fee+c.Bond.DustLimit, need)
	}
	if c.Ledger.User == "" || c.Ledger.Pass == "" {
		return requireEnvErr("BTC_RPC_USER/BTC_RPC_PASS")
	}
	return nil
}

func requireEnvErr(name string) error {
	return fmt.Errorf("required ledger credentials not set: %s (config file, BITVM_LEDGER_* env, or plain %s)", name, name)
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings, the way leanlp-BTC-coinjoin's cmd/engine/main.go
// does for BTC_RPC_HOST/PORT.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func mustBindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("bond.amount", cfg.Bond.Amount)
	v.SetDefault("bond.fee", cfg.Bond.Fee)
	v.SetDefault("bond.dust_limit", cfg.Bond.DustLimit)
	v.SetDefault("bond.bisection_length", cfg.Bond.Bisection)
	v.SetDefault("bond.timelock_blocks", cfg.Bond.TimelockGap)
	v.SetDefault("ledger.host", cfg.Ledger.Host)
	v.SetDefault("ledger.user", cfg.Ledger.User)
	v.SetDefault("ledger.pass", cfg.Ledger.Pass)
	v.SetDefault("store.conn_string", cfg.Store.ConnString)
	v.SetDefault("dashboard.addr", cfg.Dashboard.Addr)
	v.SetDefault("dashboard.allowed_origins", cfg.Dashboard.AllowedOrigins)
}
