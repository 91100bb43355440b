package adapter

import (
	"context"
	"sort"
	"strings"

	"archgate/internal/model"
)

// Adapter extracts declared outbound references and structural signals from
// one source dialect. Extract is a pure function of the input text: it must
// not fail past this boundary. On malformed input it returns an empty
// reference set with the ParseFailed signal set.
type Adapter interface {
	Dialect() string
	Extensions() []string
	// Linkable reports whether a file of this dialect can be the target of
	// other files' references (for C, headers; for class dialects, any file).
	Linkable(path string) bool
	Extract(ctx context.Context, src []byte) ([]model.Reference, model.Signals)
}

// Registry maps file extensions to adapters. The dialect is always chosen
// from the extension, never guessed from content. This is the sole extension
// point for supporting additional source dialects.
type Registry struct {
	byExt map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byExt: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter for each of its extensions, replacing any
// previous registration.
func (r *Registry) Register(a Adapter) {
	for _, ext := range a.Extensions() {
		r.byExt[strings.ToLower(ext)] = a
	}
}

// ForExtension returns the adapter registered for ext (".c", ".cs", ...).
func (r *Registry) ForExtension(ext string) (Adapter, bool) {
	a, ok := r.byExt[strings.ToLower(ext)]
	return a, ok
}

// Dialects returns the sorted set of dialect names the registry covers.
func (r *Registry) Dialects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range r.byExt {
		if !seen[a.Dialect()] {
			seen[a.Dialect()] = true
			out = append(out, a.Dialect())
		}
	}
	sort.Strings(out)
	return out
}

// Default returns a registry with every built-in dialect.
func Default() *Registry {
	return NewRegistry(NewC(), NewCPP(), NewCSharp(), NewVB())
}
