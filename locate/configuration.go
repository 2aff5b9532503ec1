package locate

import "fmt"

// Configuration is the immutable setup shared by every estimation cycle.
// Build it with NewConfiguration.
type Configuration struct {
	registry     *Registry
	perimeter    *Perimeter
	triangulator Triangulator

	mode               Mode
	initHeading        float64
	initDirection      Vector
	tolerance          float64
	consensusThreshold float64
	odometryTolerance  float64
}

// Settings holds the values NewConfiguration validates. Zero tolerances and
// threshold select the package defaults.
type Settings struct {
	Landmarks []Landmark
	Mode      Mode
	// InitHeading is the angle between north and the robot axis when it was
	// initialized facing a side of the perimeter.
	InitHeading float64
	// InitDirection is the robot direction at initialization.
	InitDirection      Vector
	Tolerance          float64
	ConsensusThreshold float64
	OdometryTolerance  float64
}

// NewConfiguration validates settings and builds the registry, perimeter and
// triangulation strategy.
func NewConfiguration(s Settings) (*Configuration, error) {
	registry, err := NewRegistry(s.Landmarks)
	if err != nil {
		return nil, err
	}
	perimeter, err := NewPerimeter(registry, s.Mode)
	if err != nil {
		return nil, err
	}
	if s.Mode == PolygonMode && s.InitDirection.IsZero() {
		return nil, fmt.Errorf("%w: polygon mode needs a non-zero init direction", ErrInvalidRegistry)
	}
	if s.Mode != PolygonMode && s.Mode != RectangleMode {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegistry, s.Mode)
	}

	c := &Configuration{
		registry:           registry,
		perimeter:          perimeter,
		triangulator:       s.Mode.triangulator(registry, s.InitDirection),
		mode:               s.Mode,
		initHeading:        s.InitHeading,
		initDirection:      s.InitDirection,
		tolerance:          s.Tolerance,
		consensusThreshold: s.ConsensusThreshold,
		odometryTolerance:  s.OdometryTolerance,
	}
	if c.tolerance <= 0 {
		c.tolerance = DefaultTolerance
	}
	if c.consensusThreshold <= 0 {
		c.consensusThreshold = DefaultConsensusThreshold
	}
	if c.odometryTolerance <= 0 {
		c.odometryTolerance = DefaultOdometryTolerance
	}
	return c, nil
}

// Registry returns the beacon registry.
func (c *Configuration) Registry() *Registry { return c.registry }

// Perimeter returns the perimeter used for containment filtering.
func (c *Configuration) Perimeter() *Perimeter { return c.perimeter }

// Mode returns the perimeter mode.
func (c *Configuration) Mode() Mode { return c.mode }

// InitHeading returns the init-to-north angle in degrees.
func (c *Configuration) InitHeading() float64 { return c.initHeading }

// InitDirection returns the robot direction at initialization.
func (c *Configuration) InitDirection() Vector { return c.initDirection }

// Tolerance returns the approximate equality distance.
func (c *Configuration) Tolerance() float64 { return c.tolerance }

// ConsensusThreshold returns the agreement percentage used by Consensus.
func (c *Configuration) ConsensusThreshold() float64 { return c.consensusThreshold }

// OdometryTolerance returns the tolerance applied to hints that carry none.
func (c *Configuration) OdometryTolerance() float64 { return c.odometryTolerance }

// NewObservation binds a reading to its landmark. The stored bearing is the
// raw camera bearing plus the current heading-to-north and the
// initialization-to-north angle, normalized to (-180, 180].
func (c *Configuration) NewObservation(seq *SequenceGenerator, headingToNorth float64, r Reading) (*Observation, error) {
	lm, err := c.registry.Lookup(r.Color)
	if err != nil {
		return nil, err
	}
	o := &Observation{
		SequenceID: seq.Next(),
		Bearing:    NormalizeBearing(r.Bearing + headingToNorth + c.initHeading),
		Landmark:   lm,
	}
	if r.Distance != nil {
		d := *r.Distance
		o.Distance = &d
	}
	return o, nil
}
