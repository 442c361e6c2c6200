/*
direction.go - Contract kind registration and lookup

PURPOSE:
  Lease contracts and management contracts share the validator, generator,
  status and reschedule logic. What differs is which way money flows and
  what an obligation carries. Each kind implements Direction and registers
  it from its own package, so this package stays kind-agnostic.

USAGE:
  // In lease/lease.go
  func init() { generic.RegisterDirection(Direction{}) }

  dir, err := generic.LookupDirection(contract.Kind)
  dir.Prepare(contract, &obligation)

SEE ALSO:
  - lease/lease.go: Collection payments owed by tenants
  - management/management.go: Supply payments owed to owners
*/
package generic

import (
	"fmt"
	"sort"
	"sync"
)

// Direction describes one contract kind.
type Direction interface {
	Kind() ContractKind

	// Prepare fills the kind-specific fields of a freshly generated
	// obligation. Period, sequence and identity are already set.
	Prepare(c Contract, o *Obligation)

	// SupportsDelay reports whether obligations of this kind can be postponed.
	SupportsDelay() bool
}

var (
	directionRegistry = make(map[ContractKind]Direction)
	registryMu        sync.RWMutex
)

// RegisterDirection adds a contract kind. Call from init().
func RegisterDirection(d Direction) {
	registryMu.Lock()
	defer registryMu.Unlock()
	directionRegistry[d.Kind()] = d
}

// LookupDirection returns the registered Direction for kind.
func LookupDirection(kind ContractKind) (Direction, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := directionRegistry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return d, nil
}

// Kinds lists the registered contract kinds in name order.
func Kinds() []ContractKind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]ContractKind, 0, len(directionRegistry))
	for k := range directionRegistry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
