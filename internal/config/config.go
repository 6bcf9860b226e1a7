package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultG          = 1.0
	DefaultDt         = 0.01
	DefaultDuration   = 10.0
	DefaultIntegrator = "leapfrog"
	DefaultHeartbeats = 100
)

var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Config describes one simulation run: the host integrator, the initial
// particles and the operators attached to them.
type Config struct {
	Name       string           `yaml:"name" toml:"name" json:"name"`
	Integrator string           `yaml:"integrator" toml:"integrator" json:"integrator"`
	G          float64          `yaml:"g" toml:"g" json:"g"`
	Dt         float64          `yaml:"dt" toml:"dt" json:"dt"`
	Duration   float64          `yaml:"duration" toml:"duration" json:"duration"`
	Tolerance  float64          `yaml:"tolerance,omitempty" toml:"tolerance,omitempty" json:"tolerance,omitempty"`
	Softening  float64          `yaml:"softening,omitempty" toml:"softening,omitempty" json:"softening,omitempty"`
	MoveToCOM  bool             `yaml:"move_to_com" toml:"move_to_com" json:"move_to_com"`
	Heartbeats int              `yaml:"heartbeats" toml:"heartbeats" json:"heartbeats"`
	OrbitLog   OrbitLogConfig   `yaml:"orbit_log" toml:"orbit_log" json:"orbit_log"`
	Particles  []ParticleConfig `yaml:"particles" toml:"particles" json:"particles"`
	Operators  []OperatorConfig `yaml:"operators" toml:"operators" json:"operators"`
}

// OrbitLogConfig selects the particle whose elements are sampled every
// Interval time units. A zero Interval disables the log.
type OrbitLogConfig struct {
	Particle int     `yaml:"particle" toml:"particle" json:"particle"`
	Primary  int     `yaml:"primary" toml:"primary" json:"primary"`
	Interval float64 `yaml:"interval" toml:"interval" json:"interval"`
}

// ParticleConfig places a particle either by Cartesian coordinates or, when
// Orbit is set, by orbital elements about particle 0.
type ParticleConfig struct {
	M      float64            `yaml:"m" toml:"m" json:"m"`
	X      float64            `yaml:"x,omitempty" toml:"x,omitempty" json:"x,omitempty"`
	Y      float64            `yaml:"y,omitempty" toml:"y,omitempty" json:"y,omitempty"`
	Z      float64            `yaml:"z,omitempty" toml:"z,omitempty" json:"z,omitempty"`
	VX     float64            `yaml:"vx,omitempty" toml:"vx,omitempty" json:"vx,omitempty"`
	VY     float64            `yaml:"vy,omitempty" toml:"vy,omitempty" json:"vy,omitempty"`
	VZ     float64            `yaml:"vz,omitempty" toml:"vz,omitempty" json:"vz,omitempty"`
	Orbit  *OrbitConfig       `yaml:"orbit,omitempty" toml:"orbit,omitempty" json:"orbit,omitempty"`
	Params map[string]float64 `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`
}

type OrbitConfig struct {
	A    float64 `yaml:"a" toml:"a" json:"a"`
	E    float64 `yaml:"e" toml:"e" json:"e"`
	Inc  float64 `yaml:"inc" toml:"inc" json:"inc"`
	Node float64 `yaml:"node" toml:"node" json:"node"`
	Peri float64 `yaml:"peri" toml:"peri" json:"peri"`
	F    float64 `yaml:"f" toml:"f" json:"f"`
}

// OperatorConfig attaches a registered operator. With Timing empty the
// placement policy decides; otherwise a single step of Fraction is added.
type OperatorConfig struct {
	Name     string  `yaml:"name" toml:"name" json:"name"`
	Step     string  `yaml:"step,omitempty" toml:"step,omitempty" json:"step,omitempty"`
	Timing   string  `yaml:"timing,omitempty" toml:"timing,omitempty" json:"timing,omitempty"`
	Fraction float64 `yaml:"fraction,omitempty" toml:"fraction,omitempty" json:"fraction,omitempty"`
	Required bool    `yaml:"required,omitempty" toml:"required,omitempty" json:"required,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "run",
		Integrator: DefaultIntegrator,
		G:          DefaultG,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Heartbeats: DefaultHeartbeats,
	}
}

// Load reads a YAML or TOML file, chosen by extension, over DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := DefaultConfig()
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	switch format(path) {
	case "yaml":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		data = out
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var err error
	if strings.TrimSpace(c.Integrator) == "" {
		err = multierr.Append(err, errors.New("integrator is required"))
	}
	if c.Dt == 0 {
		err = multierr.Append(err, errors.New("dt must be non-zero"))
	}
	if c.Duration <= 0 {
		err = multierr.Append(err, fmt.Errorf("duration must be positive, got %v", c.Duration))
	}
	if c.Tolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("tolerance must not be negative, got %v", c.Tolerance))
	}
	if c.Heartbeats < 0 {
		err = multierr.Append(err, fmt.Errorf("heartbeats must not be negative, got %d", c.Heartbeats))
	}
	if len(c.Particles) == 0 {
		err = multierr.Append(err, errors.New("at least one particle is required"))
	}

	for i, p := range c.Particles {
		if p.M < 0 {
			err = multierr.Append(err, fmt.Errorf("particle[%d]: negative mass %v", i, p.M))
		}
		if p.Orbit != nil && i == 0 {
			err = multierr.Append(err, errors.New("particle[0]: orbit needs a primary before it"))
		}
	}

	if c.OrbitLog.Interval < 0 {
		err = multierr.Append(err, fmt.Errorf("orbit_log: negative interval %v", c.OrbitLog.Interval))
	}
	if c.OrbitLog.Interval > 0 {
		n := len(c.Particles)
		if c.OrbitLog.Particle < 0 || c.OrbitLog.Particle >= n || c.OrbitLog.Primary < 0 || c.OrbitLog.Primary >= n {
			err = multierr.Append(err, fmt.Errorf("orbit_log: particle %d/primary %d out of range", c.OrbitLog.Particle, c.OrbitLog.Primary))
		} else if c.OrbitLog.Particle == c.OrbitLog.Primary {
			err = multierr.Append(err, errors.New("orbit_log: particle and primary must differ"))
		}
	}

	for i, op := range c.Operators {
		if strings.TrimSpace(op.Name) == "" {
			err = multierr.Append(err, fmt.Errorf("operators[%d]: name is required", i))
		}
		switch op.Timing {
		case "", "pre", "post":
		default:
			err = multierr.Append(err, fmt.Errorf("operators[%d]: timing must be pre or post, got %q", i, op.Timing))
		}
		if op.Fraction < 0 {
			err = multierr.Append(err, fmt.Errorf("operators[%d]: negative fraction %v", i, op.Fraction))
		}
	}
	return err
}

// Clone returns a deep copy so presets can be modified safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles = make([]ParticleConfig, len(c.Particles))
	for i, p := range c.Particles {
		if p.Orbit != nil {
			o := *p.Orbit
			p.Orbit = &o
		}
		if p.Params != nil {
			params := make(map[string]float64, len(p.Params))
			for k, v := range p.Params {
				params[k] = v
			}
			p.Params = params
		}
		out.Particles[i] = p
	}
	out.Operators = append([]OperatorConfig(nil), c.Operators...)
	return &out
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
