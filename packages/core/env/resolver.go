package env

import (
	"os"
	"regexp"
	"sync"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands ${NAME} references. Explicit variables shadow the OS
// environment. Safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	warnFunc  WarnFunc
}

func NewResolver(vars map[string]string) *Resolver {
	r := &Resolver{variables: make(map[string]string, len(vars))}
	for k, v := range vars {
		r.variables[k] = v
	}
	return r
}

// SetWarnFunc sets a function to be called for unresolved references.
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) Lookup(name string) (string, bool) {
	r.mu.RLock()
	v, ok := r.variables[name]
	r.mu.RUnlock()
	if ok {
		return v, true
	}
	return os.LookupEnv(name)
}

// Resolve replaces ${NAME} and ${NAME:-default}. A reference with no value
// and no default is left as written and reported to the warn func.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		name := groups[1]

		if v, ok := r.Lookup(name); ok && v != "" {
			return v
		}
		if len(match) > len(name)+3 {
			// ${NAME:-...} form, possibly with an empty default.
			return groups[2]
		}

		r.warn("unresolved environment variable: ${%s}", name)
		return match
	})
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// Unresolved lists the references in input that Resolve would leave as written.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, groups := range variablePattern.FindAllStringSubmatch(input, -1) {
		if len(groups[0]) > len(groups[1])+3 {
			continue
		}
		if v, ok := r.Lookup(groups[1]); ok && v != "" {
			continue
		}
		names = append(names, groups[1])
	}
	return names
}
