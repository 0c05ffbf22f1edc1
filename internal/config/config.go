package config

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/zzmio78/wrdrv/internal/conflict"
)

type Config struct {
	DatabasePath string         `mapstructure:"database_path"`
	Scan         ScanConfig     `mapstructure:"scan"`
	Conflict     ConflictConfig `mapstructure:"conflict"`
}

type ScanConfig struct {
	DelayMS int `mapstructure:"delay_ms"` // pause between scan loops
}

type ConflictConfig struct {
	Services       []string `mapstructure:"services"`
	Processes      []string `mapstructure:"processes"`
	RestoreTargets []string `mapstructure:"restore_targets"`
}

// LoadOrInitialize reads the config file, creating it with defaults when it
// does not exist yet.
func LoadOrInitialize(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	defaults := conflict.DefaultLists()
	v.SetDefault("database_path", "")
	v.SetDefault("scan.delay_ms", 300)
	v.SetDefault("conflict.services", defaults.Services)
	v.SetDefault("conflict.processes", defaults.Processes)
	v.SetDefault("conflict.restore_targets", defaults.RestoreTargets)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &Config{
			Scan: ScanConfig{
				DelayMS: v.GetInt("scan.delay_ms"),
			},
			Conflict: ConflictConfig{
				Services:       v.GetStringSlice("conflict.services"),
				Processes:      v.GetStringSlice("conflict.processes"),
				RestoreTargets: v.GetStringSlice("conflict.restore_targets"),
			},
		}
		if err := Save(configPath, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration back to disk.
func Save(configPath string, cfg *Config) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("database_path", cfg.DatabasePath)
	v.Set("scan.delay_ms", cfg.Scan.DelayMS)
	v.Set("conflict.services", cfg.Conflict.Services)
	v.Set("conflict.processes", cfg.Conflict.Processes)
	v.Set("conflict.restore_targets", cfg.Conflict.RestoreTargets)

	return v.WriteConfigAs(configPath)
}

// ConflictLists converts the configured sets into the resolver's immutable
// form.
func (c *Config) ConflictLists() conflict.Lists {
	return conflict.Lists{
		Services:       c.Conflict.Services,
		Processes:      c.Conflict.Processes,
		RestoreTargets: c.Conflict.RestoreTargets,
	}
}

// ScanDelay returns the configured inter-scan pause.
func (c *Config) ScanDelay() time.Duration {
	return time.Duration(c.Scan.DelayMS) * time.Millisecond
}
