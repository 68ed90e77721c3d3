package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultPath is used when neither -config nor CONFIG_PATH is set.
const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Timezone string  `yaml:"timezone"`
	Network  Network `yaml:"network"`
}

// Network is the city graph and fleet loaded at startup.
type Network struct {
	Locations []Location `yaml:"locations"`
	Edges     []Edge     `yaml:"edges"`
	Drivers   []Person   `yaml:"drivers"`
	Customers []Person   `yaml:"customers"`
	Admins    []Person   `yaml:"admins"`
}

type Location struct {
	Name     string `yaml:"name"`
	Distance int    `yaml:"distance"`
}

type Edge struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Weight int    `yaml:"weight"`
}

// Person is a seeded account. Location only applies to drivers.
type Person struct {
	Name     string `yaml:"name"`
	Age      int    `yaml:"age"`
	Gender   string `yaml:"gender"`
	Location string `yaml:"location"`
}

// LoadConfig reads and validates the YAML file at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	for i, e := range c.Network.Edges {
		if e.Weight <= 0 {
			return fmt.Errorf("network.edges[%d]: weight must be positive", i)
		}
	}
	for i, d := range c.Network.Drivers {
		if d.Location == "" {
			return fmt.Errorf("network.drivers[%d]: location is required", i)
		}
	}
	return nil
}
