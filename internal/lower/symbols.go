package lower

import (
	"fmt"
	"strings"

	"riffle/internal/ir"
)

// SymbolAllocator hands out collision-free names for the sub-programs the
// lowering creates. It is seeded with every symbol already present in the
// module and remembers each name it allocates, so no two calls during one
// pass can return the same name. One allocator is constructed per pass
// invocation and passed explicitly to every rule.
type SymbolAllocator struct {
	used map[string]bool
}

// NewSymbolAllocator creates an allocator seeded from the module's existing
// top-level symbols.
func NewSymbolAllocator(m *ir.Module) *SymbolAllocator {
	s := &SymbolAllocator{used: make(map[string]bool)}
	for _, name := range m.SymbolNames() {
		s.Add(name)
	}
	return s
}

// Allocate returns a unique name derived from the operation's kind name,
// with structural separators stripped and a numeric suffix appended when the
// base is taken. The chosen name is registered before returning.
func (s *SymbolAllocator) Allocate(op *ir.Operation) string {
	base := strings.ReplaceAll(op.Kind.String(), ".", "_")

	name := base
	for cnt := 1; s.used[name]; cnt++ {
		name = fmt.Sprintf("%s_%d", base, cnt)
	}
	s.Add(name)

	return name
}

// Add registers a name as taken.
func (s *SymbolAllocator) Add(name string) {
	s.used[name] = true
}
