package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the options shared by every command.
type Config struct {
	StatePath    string
	EventsPath   string
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
	Now          string
}

// InitConfig holds deployment parameters for a fresh state file.
type InitConfig struct {
	Config
	Owner           string
	Escrow          string
	KYCRoot         string
	TierScores      []uint64
	TierMultipliers []uint64

	StakingAddress           string
	StakingToken             string
	RewardsToken             string
	Distributor              string
	NonWithdrawalBoost       string
	NonWithdrawalBoostPeriod uint64
	MinimumLockDays          uint64
}

// ExportConfig holds options for pushing state to Postgres.
type ExportConfig struct {
	Config
	PGDSN      string
	BatchSize  int
	StateFile  string
	ExportName string
	Migrate    bool
}

// AuditConfig holds options for comparing escrow with chain balances.
type AuditConfig struct {
	Config
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("state", "./data/launchpad.json")
	v.SetDefault("events", "./data/events.jsonl")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-max-size", 100)
	v.SetDefault("tier-scores", []uint64{399, 299, 199, 99, 10})
	v.SetDefault("tier-multipliers", []uint64{300, 250, 200, 150, 100})
	v.SetDefault("non-withdrawal-boost", "0.5")
	v.SetDefault("boost-period-days", uint64(356))
	v.SetDefault("minimum-lock-days", uint64(7))
	v.SetDefault("batch-size", 500)
	v.SetDefault("export-name", "launchpad")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("launchpad")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func baseConfig(v *viper.Viper) Config {
	return Config{
		StatePath:    v.GetString("state"),
		EventsPath:   v.GetString("events"),
		LogLevel:     v.GetString("log-level"),
		LogFile:      v.GetString("log-file"),
		LogMaxSizeMB: v.GetInt("log-max-size"),
		Now:          v.GetString("now"),
	}
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return baseConfig(v), nil
}

func LoadInit(cfgFile string, flags *pflag.FlagSet) (InitConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return InitConfig{}, err
	}
	scores, err := getUintSlice(v, "tier-scores")
	if err != nil {
		return InitConfig{}, err
	}
	multipliers, err := getUintSlice(v, "tier-multipliers")
	if err != nil {
		return InitConfig{}, err
	}
	return InitConfig{
		Config:                   baseConfig(v),
		Owner:                    v.GetString("owner"),
		Escrow:                   v.GetString("escrow"),
		KYCRoot:                  v.GetString("kyc-root"),
		TierScores:               scores,
		TierMultipliers:          multipliers,
		StakingAddress:           v.GetString("staking-address"),
		StakingToken:             v.GetString("staking-token"),
		RewardsToken:             v.GetString("rewards-token"),
		Distributor:              v.GetString("distributor"),
		NonWithdrawalBoost:       v.GetString("non-withdrawal-boost"),
		NonWithdrawalBoostPeriod: v.GetUint64("boost-period-days"),
		MinimumLockDays:          v.GetUint64("minimum-lock-days"),
	}, nil
}

func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ExportConfig{}, err
	}
	return ExportConfig{
		Config:     baseConfig(v),
		PGDSN:      v.GetString("pg-dsn"),
		BatchSize:  v.GetInt("batch-size"),
		StateFile:  v.GetString("export-state-file"),
		ExportName: v.GetString("export-name"),
		Migrate:    v.GetBool("migrate"),
	}, nil
}

func LoadAudit(cfgFile string, flags *pflag.FlagSet) (AuditConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return AuditConfig{}, err
	}
	return AuditConfig{
		Config:       baseConfig(v),
		RPCURL:       v.GetString("rpc"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}, nil
}

func getUintSlice(v *viper.Viper, key string) ([]uint64, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	var items []string
	switch typed := v.Get(key).(type) {
	case []uint64:
		return typed, nil
	case []uint:
		out := make([]uint64, len(typed))
		for i, item := range typed {
			out[i] = uint64(item)
		}
		return out, nil
	case []string:
		items = cleanStrings(typed)
	case string:
		items = splitAndClean(typed)
	case []interface{}:
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		items = cleanStrings(items)
	default:
		return nil, fmt.Errorf("%s: unsupported type %T", key, typed)
	}
	return ParseUints(items)
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
