package operator

import (
	"fmt"
	"sort"
)

type entry struct {
	kind   Kind
	update UpdateFunc
	meta   Metadata
}

// Registry maps operator names to implementations. It starts with the
// built-in catalog; user operators are added with Register.
type Registry struct {
	entries map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]entry)}

	r.entries["modify_mass"] = entry{
		kind:   KindModifyMass,
		update: modifyMass,
		meta: Metadata{
			Symmetry:      Symmetric,
			DefaultTiming: Post,
			Required:      []string{TauMass},
			Description:   "exponential mass change m *= exp(dt/tau_mass)",
		},
	}
	r.entries["mass_loss_test"] = entry{
		kind:   KindMassLossTest,
		update: massLossTest,
		meta: Metadata{
			Symmetry:      Asymmetric,
			DefaultTiming: Post,
			Required:      []string{MassLossRate},
			Description:   "linear mass loss of mass_loss_rate per call down to mass_floor",
		},
	}

	return r
}

// Load returns a fresh handle for name.
func (r *Registry) Load(name string) (*Operator, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}
	op := &Operator{Name: name, Kind: e.kind, Update: e.update, Meta: e.meta}
	return op.clone(), nil
}

// Register adds a user operator and returns a handle to it.
func (r *Registry) Register(name string, fn UpdateFunc, meta Metadata) (*Operator, error) {
	if name == "" || fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, name)
	}
	if _, ok := r.entries[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOperator, name)
	}
	meta.Required = append([]string(nil), meta.Required...)
	r.entries[name] = entry{kind: KindUser, update: fn, meta: meta}
	return r.Load(name)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Describe(name string) (Metadata, error) {
	e, ok := r.entries[name]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}
	meta := e.meta
	meta.Required = append([]string(nil), e.meta.Required...)
	return meta, nil
}
