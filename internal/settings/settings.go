// Package settings resolves named runtime settings such as WP_DEBUG or
// WP_ENV. A setting may come from the process environment or from a
// configured constant; the environment always wins.
package settings

import (
	"os"
	"strings"
)

// Source is anything that can look up a named setting.
type Source interface {
	Lookup(name string) (string, bool)
}

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Resolver looks up a name in the environment first and in its constant
// table second.
type Resolver struct {
	env       LookupFunc
	constants map[string]string
}

var _ Source = (*Resolver)(nil)

// New returns a Resolver over the process environment and the given
// constants. A nil map is treated as empty.
func New(constants map[string]string) *Resolver {
	return NewWithEnv(os.LookupEnv, constants)
}

// NewWithEnv returns a Resolver with a custom environment lookup.
// A nil env disables environment lookups entirely.
func NewWithEnv(env LookupFunc, constants map[string]string) *Resolver {
	c := make(map[string]string, len(constants))
	for k, v := range constants {
		c[k] = v
	}
	return &Resolver{env: env, constants: c}
}

// Lookup returns the value of name and whether it is defined anywhere.
func (r *Resolver) Lookup(name string) (string, bool) {
	if r.env != nil {
		if v, ok := r.env(name); ok {
			return v, true
		}
	}
	v, ok := r.constants[name]
	return v, ok
}

// Constants returns a copy of the configured constant table.
func (r *Resolver) Constants() map[string]string {
	out := make(map[string]string, len(r.constants))
	for k, v := range r.constants {
		out[k] = v
	}
	return out
}

// Get returns the value of name, or "" when undefined.
func Get(s Source, name string) string {
	v, _ := s.Lookup(name)
	return v
}

// Defined reports whether name is set in s, even to an empty value.
func Defined(s Source, name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Bool reports whether name is set to a truthy value
// ("1", "true", "yes", "on"; case-insensitive).
func Bool(s Source, name string) bool {
	v, ok := s.Lookup(name)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// EqualFold reports whether name is set and equals want, ignoring case.
func EqualFold(s Source, name, want string) bool {
	v, ok := s.Lookup(name)
	return ok && strings.EqualFold(strings.TrimSpace(v), want)
}

// Map is a Source backed by a plain map. Handy in tests.
type Map map[string]string

// Lookup implements Source.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
