package authz

import (
	"errors"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"

	"github.com/averen/sigil/internal/core"
)

// ErrPolicyNotFound is returned when a referenced policy name is absent from
// the registry. Attachments are resolved at startup, so this surfaces as a
// configuration error before the server takes traffic.
var ErrPolicyNotFound = errors.New("policy not found")

// Registry holds the named policies loaded at startup. Read-only afterwards,
// safe for concurrent readers without locking. Reconfiguration means a
// process restart.
type Registry struct {
	policies map[string]*core.Policy
}

// NewRegistry validates the policies, compiles their expression requirements,
// and builds the lookup table.
func NewRegistry(policies []core.Policy) (*Registry, error) {
	byName := make(map[string]*core.Policy, len(policies))

	for i := range policies {
		p := &policies[i]
		if p.Name == "" {
			return nil, fmt.Errorf("policy #%d missing name", i)
		}
		if _, exists := byName[p.Name]; exists {
			return nil, fmt.Errorf("policy name '%s' is not unique", p.Name)
		}

		for j := range p.Requirements {
			req := &p.Requirements[j]
			if err := req.Validate(); err != nil {
				return nil, fmt.Errorf("policy '%s' requirement #%d: %w", p.Name, j, err)
			}
			if req.Kind == core.KindExpr {
				program, err := expr.Compile(req.Expr, expr.AsBool())
				if err != nil {
					return nil, fmt.Errorf("policy '%s': compiling expr: %w", p.Name, err)
				}
				req.CompiledExpr = program
			}
		}

		byName[p.Name] = p
	}

	return &Registry{policies: byName}, nil
}

// Get returns the named policy.
func (r *Registry) Get(name string) (*core.Policy, error) {
	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrPolicyNotFound, name)
	}
	return p, nil
}

// Names returns the registered policy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
