package physics

import (
	"errors"
	"math"
	"testing"
)

func TestOrbit_RoundTrip(t *testing.T) {
	primary := Particle{M: 1.0}
	tests := []struct {
		name string
		o    Orbit
	}{
		{"inclined eccentric", Orbit{A: 1.5, E: 0.1, Inc: 0.3, Node: 1.0, Peri: 0.5, F: 2.0}},
		{"retrograde", Orbit{A: 2.0, E: 0.4, Inc: 2.5, Node: 4.0, Peri: 3.0, F: 0.7}},
		{"hyperbolic", Orbit{A: -1.0, E: 1.5, Inc: 0.2, Node: 0.3, Peri: 0.4, F: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromOrbit(1.0, primary, 1e-3, tt.o)
			if err != nil {
				t.Fatalf("FromOrbit: %v", err)
			}
			got, err := ToOrbit(1.0, p, primary)
			if err != nil {
				t.Fatalf("ToOrbit: %v", err)
			}

			checks := []struct {
				field     string
				got, want float64
			}{
				{"a", got.A, tt.o.A},
				{"e", got.E, tt.o.E},
				{"inc", got.Inc, tt.o.Inc},
				{"node", got.Node, tt.o.Node},
				{"peri", got.Peri, tt.o.Peri},
				{"f", got.F, tt.o.F},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.want) > 1e-9 {
					t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
				}
			}
			if got.Bound != (tt.o.E < 1) {
				t.Errorf("Bound = %v for e=%v", got.Bound, tt.o.E)
			}
		})
	}
}

func TestOrbit_CircularPlanar(t *testing.T) {
	sun := Particle{M: 1.0}
	planet := Particle{M: 1e-3, X: 1.0, VY: 2 * math.Pi}

	o, err := ToOrbit(4*math.Pi*math.Pi, planet, sun)
	if err != nil {
		t.Fatalf("ToOrbit: %v", err)
	}
	if math.Abs(o.A-1.0/1.001) > 1e-3 {
		t.Errorf("a = %v, want ~1", o.A)
	}
	if o.Inc != 0 {
		t.Errorf("inc = %v, want 0", o.Inc)
	}
}

func TestOrbit_Errors(t *testing.T) {
	if _, err := ToOrbit(1.0, Particle{}, Particle{}); !errors.Is(err, ErrNoMass) {
		t.Errorf("expected ErrNoMass, got %v", err)
	}
	if _, err := ToOrbit(1.0, Particle{X: 1, VX: 1}, Particle{M: 1}); !errors.Is(err, ErrDegenerateOrbit) {
		t.Errorf("expected ErrDegenerateOrbit, got %v", err)
	}
	if _, err := FromOrbit(1.0, Particle{M: 1}, 0, Orbit{A: -1, E: 0.5}); !errors.Is(err, ErrInvalidElements) {
		t.Errorf("expected ErrInvalidElements, got %v", err)
	}
}
