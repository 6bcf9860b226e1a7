package params

import (
	"errors"
	"testing"
)

func TestStore_SetGet(t *testing.T) {
	s := NewStore()

	if err := s.Set(Particle(1), "tau_mass", Float64(-1000)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	tau, ok, err := s.GetFloat64(Particle(1), "tau_mass")
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if tau != -1000 {
		t.Errorf("expected -1000, got %v", tau)
	}
}

func TestStore_Overwrite(t *testing.T) {
	s := NewStore()
	target := Particle(0)

	if err := s.Set(target, "tau_mass", Float64(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(target, "tau_mass", Float64(2)); err != nil {
		t.Fatalf("overwrite must not fail: %v", err)
	}
	if err := s.Set(target, "tau_mass", Int(3)); err != nil {
		t.Fatalf("overwrite with another kind must not fail: %v", err)
	}

	v, ok := s.Get(target, "tau_mass")
	if !ok || v.Kind() != KindInt {
		t.Errorf("expected int value, got %v (%s)", v, v.Kind())
	}
}

func TestStore_MissingIsNotError(t *testing.T) {
	s := NewStore()
	_ = s.Set(Particle(0), "other", Float64(1))

	tests := []struct {
		name   string
		target Target
		key    string
	}{
		{"no bag", Particle(7), "tau_mass"},
		{"no key", Particle(0), "tau_mass"},
		{"global", Global(), "tau_mass"},
		{"exact key only", Particle(0), "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := s.GetFloat64(tt.target, tt.key)
			if ok {
				t.Error("expected absent")
			}
			if err != nil {
				t.Errorf("absence must not be an error: %v", err)
			}
		})
	}
}

func TestStore_TypeMismatch(t *testing.T) {
	s := NewStore()
	target := Particle(2)
	_ = s.Set(target, "name", String("star"))
	_ = s.Set(target, "tau_mass", Float64(5))

	if _, ok, err := s.GetFloat64(target, "name"); !ok || !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected present + ErrTypeMismatch, got ok=%v err=%v", ok, err)
	}
	if _, _, err := s.GetInt(target, "tau_mass"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if _, _, err := s.GetBool(target, "tau_mass"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if name, _, err := s.GetString(target, "name"); err != nil || name != "star" {
		t.Errorf("expected star, got %q (%v)", name, err)
	}
}

func TestStore_InvalidInput(t *testing.T) {
	s := NewStore()

	if err := s.Set(Particle(-1), "k", Float64(1)); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
	if err := s.Set(Particle(0), "k", Value{}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, ok := s.Get(Particle(-1), "k"); ok {
		t.Error("invalid target must read as absent")
	}
}

func TestStore_GlobalIsSeparate(t *testing.T) {
	s := NewStore()
	_ = s.Set(Global(), "c", Float64(10065))

	if _, ok := s.Get(Particle(0), "c"); ok {
		t.Error("global parameter leaked into particle bag")
	}
	c, ok, err := s.GetFloat64(Global(), "c")
	if !ok || err != nil || c != 10065 {
		t.Errorf("global read failed: %v %v %v", c, ok, err)
	}
}

func TestStore_DeleteKeysTargetsReset(t *testing.T) {
	s := NewStore()
	_ = s.Set(Particle(3), "b", Bool(true))
	_ = s.Set(Particle(3), "a", Int(1))
	_ = s.Set(Particle(1), "tau_mass", Float64(-1))
	_ = s.Set(Global(), "g", Float64(1))

	keys := s.Keys(Particle(3))
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected sorted keys [a b], got %v", keys)
	}

	targets := s.Targets()
	want := []Target{Global(), Particle(1), Particle(3)}
	if len(targets) != len(want) {
		t.Fatalf("expected %v, got %v", want, targets)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("target %d: got %s, want %s", i, targets[i], want[i])
		}
	}

	if !s.Delete(Particle(1), "tau_mass") {
		t.Error("delete of present key returned false")
	}
	if s.Delete(Particle(1), "tau_mass") {
		t.Error("delete of absent key returned true")
	}
	if len(s.Targets()) != 2 {
		t.Errorf("empty bag should be released, targets=%v", s.Targets())
	}

	s.Reset()
	if len(s.Targets()) != 0 {
		t.Errorf("reset left targets %v", s.Targets())
	}
}

func TestBag_ZeroValue(t *testing.T) {
	var b Bag
	if _, ok := b.Get("tau_mass"); ok {
		t.Error("empty bag reported a key")
	}

	b.Set("tau_mass", Float64(-4e6))
	if v, ok := b.Get("tau_mass"); !ok || v.String() != Float64(-4e6).String() {
		t.Errorf("expected stored value, got %v %v", v, ok)
	}
	if b.Len() != 1 {
		t.Errorf("expected one key, got %d", b.Len())
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Float64(-1000), "-1000"},
		{Int(42), "42"},
		{Bool(true), "true"},
		{String("x"), "x"},
		{Value{}, "<invalid>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
