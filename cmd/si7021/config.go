package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type config struct {
	Adapter  string       `yaml:"adapter"`
	Bus      string       `yaml:"bus"`
	GobotBus int          `yaml:"gobot_bus"`
	Export   exportConfig `yaml:"export"`
}

type exportConfig struct {
	Listen          string `yaml:"listen"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

func defaultConfig() config {
	return config{
		Adapter:  "mcp2221",
		GobotBus: -1,
		Export: exportConfig{
			Listen:          ":9521",
			IntervalSeconds: 30,
		},
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file: %w", err)
	}
	return cfg, nil
}

func getConfig(c *cli.Context) config {
	if cfg, ok := c.App.Metadata["config"].(config); ok {
		return cfg
	}
	return defaultConfig()
}
