// Package fields declares which lead fields the core may mutate and how each
// one is serialized to its stored string form.
//
// Every mutable field is registered deliberately with a Kind. Serialization
// (bool spelling, date layout) lives here so diffing compares canonical
// stored values and never display strings.
package fields

import (
	"fmt"
	"slices"
	"sort"

	dErrors "giyus/pkg/domain-errors"
)

// Kind is the value family of a field.
type Kind string

const (
	KindText Kind = "text"
	KindBool Kind = "bool"
	KindDate Kind = "date"
	KindEnum Kind = "enum"
)

// Serializer converts a proposed value (decoded JSON or Go value) into the
// stored string form. nil always serializes to "".
type Serializer func(v any) (string, error)

// Descriptor describes one mutable field.
type Descriptor struct {
	Name      string
	Kind      Kind
	Serialize Serializer
	// Options lists allowed values for KindEnum.
	Options []string
}

// Registry is an ordered, immutable set of descriptors.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// NewRegistry builds a registry in declaration order. Duplicate or empty names
// and descriptors without a serializer are rejected.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("field descriptor without name")
		}
		if d.Serialize == nil {
			return nil, fmt.Errorf("field %q has no serializer", d.Name)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("field %q registered twice", d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for package-level declarations.
func MustNewRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns field names in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Order sorts names by declaration order; unregistered names follow,
// lexicographically.
func (r *Registry) Order(names []string) []string {
	out := slices.Clone(names)
	index := make(map[string]int, len(r.order))
	for i, n := range r.order {
		index[n] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		ii, iok := index[out[i]]
		jj, jok := index[out[j]]
		switch {
		case iok && jok:
			return ii < jj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Serialize converts one value for a registered field.
func (r *Registry) Serialize(name string, v any) (string, error) {
	d, ok := r.byName[name]
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unknown field: "+name)
	}
	s, err := d.Serialize(v)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid value for "+name)
	}
	return s, nil
}

// Normalize serializes a whole proposal. Errors are reported for the first
// offending field in registry order, so responses are deterministic.
func (r *Registry) Normalize(proposed map[string]any) (map[string]string, error) {
	names := make([]string, 0, len(proposed))
	for name := range proposed {
		names = append(names, name)
	}
	out := make(map[string]string, len(proposed))
	for _, name := range r.Order(names) {
		s, err := r.Serialize(name, proposed[name])
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}
