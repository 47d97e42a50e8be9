package config

import (
	"sort"
	"strings"
)

// Names of parameters readable through CONFIG GET.
const (
	ParamDir        = "dir"
	ParamDBFilename = "dbfilename"
)

// Registry is the read-only set of parameters clients can query with
// CONFIG GET. It is built once at startup and never mutated, so reads
// need no synchronization.
type Registry struct {
	params map[string]string
}

// NewRegistry builds a registry from name/value pairs. Names are
// matched case-insensitively.
func NewRegistry(params map[string]string) *Registry {
	r := &Registry{params: make(map[string]string, len(params))}
	for name, value := range params {
		r.params[strings.ToLower(name)] = value
	}
	return r
}

// RegistryFrom exposes the storage location of cfg.
func RegistryFrom(cfg *ServerConfig) *Registry {
	return NewRegistry(map[string]string{
		ParamDir:        cfg.Storage.Dir,
		ParamDBFilename: cfg.Storage.DBFilename,
	})
}

// Lookup returns the canonical name and value of a parameter.
func (r *Registry) Lookup(name string) (canonical, value string, ok bool) {
	canonical = strings.ToLower(name)
	value, ok = r.params[canonical]
	return canonical, value, ok
}

// Names returns all parameter names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.params))
	for name := range r.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
