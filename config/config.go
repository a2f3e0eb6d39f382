// Package config loads the simulation settings from TOML
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/toml"
)

//go:embed default.toml
var defaultConfig []byte

// DefaultPath is probed when no explicit config path is given
var DefaultPath = filepath.Join("config", "vi-traffic.toml")

// Config is the full simulation configuration
type Config struct {
	Board     BoardConfig     `toml:"board"`
	Tick      TickConfig      `toml:"tick"`
	Spawn     SpawnConfig     `toml:"spawn"`
	Lights    LightConfig     `toml:"lights"`
	Lifecycle LifecycleConfig `toml:"lifecycle"`
}

type BoardConfig struct {
	Size int    `toml:"size"`
	Seed uint64 `toml:"seed"`
	Town bool   `toml:"town"` // generate a road layout on a fresh world
}

type TickConfig struct {
	Traffic         time.Duration `toml:"traffic"`
	Environment     time.Duration `toml:"environment"`
	MaxTrafficDelta time.Duration `toml:"max_traffic_delta"`
}

type SpawnConfig struct {
	MaxCars    int     `toml:"max_cars"`
	MaxPending int     `toml:"max_pending"`
	LotChance  float64 `toml:"lot_chance"`
	CarChance  float64 `toml:"car_chance"`
}

type LightConfig struct {
	Green  time.Duration `toml:"green"`
	Yellow time.Duration `toml:"yellow"`
}

type LifecycleConfig struct {
	Park         time.Duration `toml:"park"`
	TripDistance float64       `toml:"trip_distance"`
}

// Default returns the embedded configuration
func Default() Config {
	cfg, err := Parse(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Parse decodes data over the built-in values and validates the result
// Keys missing from data keep their built-in value
func Parse(data []byte) (Config, error) {
	cfg := builtin()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a config file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadAuto resolves custom path, then DefaultPath, then the embedded defaults
// An explicit path that cannot be read is an error; a missing DefaultPath is not
func LoadAuto(customPath string) (Config, string, error) {
	if customPath != "" {
		cfg, err := Load(customPath)
		return cfg, customPath, err
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		cfg, err := Load(DefaultPath)
		return cfg, DefaultPath, err
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, "", fmt.Errorf("config: %w", err)
	}
	return Default(), "embedded", nil
}

// builtin mirrors the parameter package; default.toml overrides it
func builtin() Config {
	return Config{
		Board: BoardConfig{Size: parameter.DefaultBoardSize, Seed: 1},
		Tick: TickConfig{
			Traffic:         parameter.TrafficUpdateInterval,
			Environment:     parameter.EnvironmentUpdateInterval,
			MaxTrafficDelta: parameter.MaxTrafficTickDelta,
		},
		Spawn: SpawnConfig{
			MaxCars:    parameter.MaxCars,
			MaxPending: parameter.MaxPendingSpawns,
			LotChance:  parameter.LotSpawnChance,
			CarChance:  parameter.CarSpawnChance,
		},
		Lights: LightConfig{
			Green:  parameter.TrafficLightGreenDuration,
			Yellow: parameter.TrafficLightYellowDuration,
		},
		Lifecycle: LifecycleConfig{
			Park:         parameter.ParkDuration,
			TripDistance: parameter.TripDistanceBeforeHome,
		},
	}
}

// Validate reports the first out-of-range field
func (c Config) Validate() error {
	switch {
	case c.Board.Size < 2 || c.Board.Size > parameter.MaxBoardSize:
		return fmt.Errorf("config: board.size %d outside [2, %d]", c.Board.Size, parameter.MaxBoardSize)
	case c.Tick.Traffic <= 0:
		return fmt.Errorf("config: tick.traffic must be positive, got %v", c.Tick.Traffic)
	case c.Tick.Environment <= 0:
		return fmt.Errorf("config: tick.environment must be positive, got %v", c.Tick.Environment)
	case c.Tick.MaxTrafficDelta < c.Tick.Traffic:
		return fmt.Errorf("config: tick.max_traffic_delta %v below tick.traffic %v", c.Tick.MaxTrafficDelta, c.Tick.Traffic)
	case c.Spawn.MaxCars < 0:
		return fmt.Errorf("config: spawn.max_cars must not be negative, got %d", c.Spawn.MaxCars)
	case c.Spawn.MaxPending < 1:
		return fmt.Errorf("config: spawn.max_pending must be at least 1, got %d", c.Spawn.MaxPending)
	case !probability(c.Spawn.LotChance):
		return fmt.Errorf("config: spawn.lot_chance %v outside [0, 1]", c.Spawn.LotChance)
	case !probability(c.Spawn.CarChance):
		return fmt.Errorf("config: spawn.car_chance %v outside [0, 1]", c.Spawn.CarChance)
	case c.Lights.Green <= 0 || c.Lights.Yellow <= 0:
		return fmt.Errorf("config: light durations must be positive, got green %v yellow %v", c.Lights.Green, c.Lights.Yellow)
	case c.Lifecycle.Park <= 0:
		return fmt.Errorf("config: lifecycle.park must be positive, got %v", c.Lifecycle.Park)
	case c.Lifecycle.TripDistance <= 0:
		return fmt.Errorf("config: lifecycle.trip_distance must be positive, got %v", c.Lifecycle.TripDistance)
	}
	return nil
}

func probability(p float64) bool {
	return p >= 0 && p <= 1
}
