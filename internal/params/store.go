package params

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrTypeMismatch indicates a typed read of a value stored with another kind.
	ErrTypeMismatch = errors.New("params: type mismatch")

	// ErrInvalidTarget indicates a negative particle index.
	ErrInvalidTarget = errors.New("params: invalid target")

	// ErrInvalidValue indicates an attempt to store the zero Value.
	ErrInvalidValue = errors.New("params: invalid value")
)

// Target names the owner of a parameter bag: the global extension context
// or a single particle.
type Target struct {
	global bool
	index  int
}

func Global() Target { return Target{global: true} }

func Particle(index int) Target { return Target{index: index} }

func (t Target) IsGlobal() bool { return t.global }

// Index returns the particle index. It is meaningless for the global target.
func (t Target) Index() int { return t.index }

func (t Target) String() string {
	if t.global {
		return "global"
	}
	return fmt.Sprintf("particle[%d]", t.index)
}

func (t Target) valid() bool {
	return t.global || t.index >= 0
}

// Bag maps exact string keys to tagged values. The zero value is empty and
// ready to use.
type Bag struct {
	values map[string]Value
}

func NewBag() *Bag {
	return &Bag{values: make(map[string]Value)}
}

func (b *Bag) Set(key string, v Value) {
	if b.values == nil {
		b.values = make(map[string]Value)
	}
	b.values[key] = v
}

func (b *Bag) Get(key string) (Value, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *Bag) Delete(key string) bool {
	_, ok := b.values[key]
	delete(b.values, key)
	return ok
}

func (b *Bag) Len() int { return len(b.values) }

func (b *Bag) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store holds the parameter bags of one extension context. A missing key is
// a normal outcome: the typed Get* methods report it through their bool result and
// only fail when a present value has the wrong kind.
//
// Store is not synchronized. Reads of distinct particle bags are
// independent; writes need external locking if a host parallelizes them.
type Store struct {
	global    *Bag
	particles map[int]*Bag
}

func NewStore() *Store {
	return &Store{
		global:    NewBag(),
		particles: make(map[int]*Bag),
	}
}

// Set inserts or overwrites key on target.
func (s *Store) Set(target Target, key string, v Value) error {
	if !target.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}
	if v.Kind() == KindInvalid {
		return fmt.Errorf("%w: %s on %s", ErrInvalidValue, key, target)
	}
	s.bag(target, true).Set(key, v)
	return nil
}

func (s *Store) Get(target Target, key string) (Value, bool) {
	b := s.bag(target, false)
	if b == nil {
		return Value{}, false
	}
	return b.Get(key)
}

func (s *Store) GetFloat64(target Target, key string) (float64, bool, error) {
	v, ok := s.Get(target, key)
	if !ok {
		return 0, false, nil
	}
	f, err := v.AsFloat64()
	if err != nil {
		return 0, true, fmt.Errorf("%s on %s: %w", key, target, err)
	}
	return f, true, nil
}

func (s *Store) GetInt(target Target, key string) (int64, bool, error) {
	v, ok := s.Get(target, key)
	if !ok {
		return 0, false, nil
	}
	i, err := v.AsInt()
	if err != nil {
		return 0, true, fmt.Errorf("%s on %s: %w", key, target, err)
	}
	return i, true, nil
}

func (s *Store) GetBool(target Target, key string) (bool, bool, error) {
	v, ok := s.Get(target, key)
	if !ok {
		return false, false, nil
	}
	b, err := v.AsBool()
	if err != nil {
		return false, true, fmt.Errorf("%s on %s: %w", key, target, err)
	}
	return b, true, nil
}

func (s *Store) GetString(target Target, key string) (string, bool, error) {
	v, ok := s.Get(target, key)
	if !ok {
		return "", false, nil
	}
	str, err := v.AsString()
	if err != nil {
		return "", true, fmt.Errorf("%s on %s: %w", key, target, err)
	}
	return str, true, nil
}

func (s *Store) Delete(target Target, key string) bool {
	b := s.bag(target, false)
	if b == nil {
		return false
	}
	ok := b.Delete(key)
	if !target.global && b.Len() == 0 {
		delete(s.particles, target.index)
	}
	return ok
}

// Keys returns the sorted keys set on target.
func (s *Store) Keys(target Target) []string {
	b := s.bag(target, false)
	if b == nil {
		return nil
	}
	return b.Keys()
}

// Targets returns the particle targets that carry at least one parameter,
// in index order, preceded by the global target when it is non-empty.
func (s *Store) Targets() []Target {
	targets := make([]Target, 0, len(s.particles)+1)
	if s.global.Len() > 0 {
		targets = append(targets, Global())
	}
	idx := make([]int, 0, len(s.particles))
	for i := range s.particles {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		targets = append(targets, Particle(i))
	}
	return targets
}

// Reset releases every bag.
func (s *Store) Reset() {
	s.global = NewBag()
	s.particles = make(map[int]*Bag)
}

func (s *Store) bag(target Target, create bool) *Bag {
	if target.global {
		return s.global
	}
	if !target.valid() {
		return nil
	}
	b, ok := s.particles[target.index]
	if !ok && create {
		b = NewBag()
		s.particles[target.index] = b
	}
	return b
}
