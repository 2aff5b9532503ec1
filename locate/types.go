package locate

// BeaconConfig defines a beacon from the config file. Beacons are listed in
// clockwise order.
type BeaconConfig struct {
	Color     string  `yaml:"color" json:"color"`
	X         float64 `yaml:"x" json:"x"`
	Y         float64 `yaml:"y" json:"y"`
	Perimeter *bool   `yaml:"perimeter,omitempty" json:"perimeter,omitempty"` // defaults to true
	Height    float64 `yaml:"height,omitempty" json:"height,omitempty"`       // LED height above the camera (m)
}

// OnPerimeter returns the perimeter flag or true if not set
func (bc *BeaconConfig) OnPerimeter() bool {
	if bc.Perimeter != nil {
		return *bc.Perimeter
	}
	return true
}

// Config represents the full configuration file
type Config struct {
	Mode               string         `yaml:"mode,omitempty" json:"mode,omitempty"` // "polygon" (default) or "rectangle"
	InitHeading        float64        `yaml:"initHeading" json:"initHeading"`       // init-to-north angle, degrees
	InitDirection      Vector         `yaml:"initDirection" json:"initDirection"`
	Tolerance          float64        `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	ConsensusThreshold float64        `yaml:"consensusThreshold,omitempty" json:"consensusThreshold,omitempty"`
	OdometryTolerance  float64        `yaml:"odometryTolerance,omitempty" json:"odometryTolerance,omitempty"`
	Beacons            []BeaconConfig `yaml:"beacons" json:"beacons"`
	MQTT               MQTTConfig     `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
	HistorySize        int            `yaml:"historySize,omitempty" json:"historySize,omitempty"` // results kept for /history (default 50)
	RenderScale        float64        `yaml:"renderScale,omitempty" json:"renderScale,omitempty"` // map render pixels per meter (default 40)
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker           string `yaml:"broker,omitempty" json:"broker,omitempty"`
	ObservationTopic string `yaml:"observationTopic,omitempty" json:"observationTopic,omitempty"`
	PublishPrefix    string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID         string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username         string `yaml:"username,omitempty" json:"username,omitempty"`
	Password         string `yaml:"password,omitempty" json:"password,omitempty"`
}

// GetBeaconByColor returns the beacon config for the given color name
func (c *Config) GetBeaconByColor(color string) *BeaconConfig {
	want, err := ParseColor(color)
	if err != nil {
		return nil
	}
	for i := range c.Beacons {
		if got, err := ParseColor(c.Beacons[i].Color); err == nil && got == want {
			return &c.Beacons[i]
		}
	}
	return nil
}

// GetHistorySize returns the configured history size or the default
func (c *Config) GetHistorySize() int {
	if c.HistorySize > 0 {
		return c.HistorySize
	}
	return DefaultHistorySize
}

// GetRenderScale returns the configured render scale or the default
func (c *Config) GetRenderScale() float64 {
	if c.RenderScale > 0 {
		return c.RenderScale
	}
	return DefaultRenderScale
}
