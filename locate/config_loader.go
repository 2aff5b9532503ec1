package locate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the fields LoadConfig requires
func (c *Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if len(c.Beacons) < MinLandmarks {
		return fmt.Errorf("at least %d beacons must be defined, got %d", MinLandmarks, len(c.Beacons))
	}

	for i, bc := range c.Beacons {
		if bc.Color == "" {
			return fmt.Errorf("beacon[%d].color is required", i)
		}
		if _, err := ParseColor(bc.Color); err != nil {
			return fmt.Errorf("beacon[%d].color: %w", i, err)
		}
		if bc.Height < 0 {
			return fmt.Errorf("beacon[%d].height must not be negative for %s", i, bc.Color)
		}
	}

	if c.ConsensusThreshold < 0 || c.ConsensusThreshold > 100 {
		return fmt.Errorf("consensusThreshold must be within 0-100, got %g", c.ConsensusThreshold)
	}
	if c.Tolerance < 0 || c.OdometryTolerance < 0 {
		return fmt.Errorf("tolerances must not be negative")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Landmarks converts the beacon list into registry landmarks
func (c *Config) Landmarks() ([]Landmark, error) {
	landmarks := make([]Landmark, 0, len(c.Beacons))
	for i, bc := range c.Beacons {
		color, err := ParseColor(bc.Color)
		if err != nil {
			return nil, fmt.Errorf("beacon[%d]: %w", i, err)
		}
		landmarks = append(landmarks, Landmark{
			Color:        color,
			Position:     Point{X: bc.X, Y: bc.Y},
			OnPerimeter:  bc.OnPerimeter(),
			HeightOffset: bc.Height,
		})
	}
	return landmarks, nil
}

// Configuration builds the immutable estimator configuration
func (c *Config) Configuration() (*Configuration, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	landmarks, err := c.Landmarks()
	if err != nil {
		return nil, err
	}
	return NewConfiguration(Settings{
		Landmarks:          landmarks,
		Mode:               mode,
		InitHeading:        c.InitHeading,
		InitDirection:      c.InitDirection,
		Tolerance:          c.Tolerance,
		ConsensusThreshold: c.ConsensusThreshold,
		OdometryTolerance:  c.OdometryTolerance,
	})
}
