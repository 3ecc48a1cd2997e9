package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"mvagent/src/datamodels"
	"mvagent/src/utils/general"
)

func Load() (*datamodels.MvagentConfig, error) {
	// read config path from env var
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		currentDir := general.GetCurrentDir()
		// go up two levels to the repository root
		configPath = filepath.Join(currentDir, "..", "..", "config.local.yaml")
	}

	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var mvagentConfig datamodels.MvagentConfig
	if err := viper.Unmarshal(&mvagentConfig); err != nil {
		return nil, err
	}

	applyDefaults(&mvagentConfig)

	return &mvagentConfig, nil
}

// applyDefaults fills the agent knobs that are optional in the config file.
func applyDefaults(cfg *datamodels.MvagentConfig) {
	if cfg.AgentConfig.StepRate == 0 {
		cfg.AgentConfig.StepRate = 1.05
	}
	if cfg.AgentConfig.RefreshInterval == 0 {
		cfg.AgentConfig.RefreshInterval = 10
	}
	if cfg.SimConfig.Duration == 0 {
		cfg.SimConfig.Duration = 1000
	}
}
