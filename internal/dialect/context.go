package dialect

import (
	"sort"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// ParseContext carries the names a parse needs to know up front: register
// aliases (assembly) and user-defined functions (BASIC). A context belongs to
// one parse. The host may seed it with names defined in other files; the
// parser adds the names it finds in the file itself.
type ParseContext struct {
	aliases   map[string]struct{}
	functions map[string]struct{}
}

// NewParseContext returns an empty context.
func NewParseContext() *ParseContext {
	return &ParseContext{
		aliases:   make(map[string]struct{}),
		functions: make(map[string]struct{}),
	}
}

// AddAlias registers a register alias name.
func (c *ParseContext) AddAlias(name string) {
	c.aliases[symbols.Normalize(name)] = struct{}{}
}

// IsAlias reports whether name is a known register alias.
func (c *ParseContext) IsAlias(name string) bool {
	_, ok := c.aliases[symbols.Normalize(name)]
	return ok
}

// Aliases returns the known alias names, sorted.
func (c *ParseContext) Aliases() []string {
	return sortedKeys(c.aliases)
}

// AddFunction registers a user-defined BASIC function name.
func (c *ParseContext) AddFunction(name string) {
	c.functions[symbols.Normalize(name)] = struct{}{}
}

// IsFunction reports whether name is a known user-defined function.
func (c *ParseContext) IsFunction(name string) bool {
	_, ok := c.functions[symbols.Normalize(name)]
	return ok
}

// Clone returns an independent copy of the context.
func (c *ParseContext) Clone() *ParseContext {
	clone := NewParseContext()
	for name := range c.aliases {
		clone.aliases[name] = struct{}{}
	}

	for name := range c.functions {
		clone.functions[name] = struct{}{}
	}

	return clone
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
