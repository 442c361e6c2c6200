/*
Package lease implements tenant lease contracts on top of the generic engine.

PURPOSE:
  A lease binds a tenant to a unit. Its obligations are collection payments:
  rent owed by the tenant for each billing period, collected by the
  management company.

AMOUNTS:
  amount = monthly rent (contract rate) x months in the period

    monthly     1200 x 1  = 1200
    quarterly   1200 x 3  = 3600
    annually    1200 x 12 = 14400

POSTPONEMENT:
  Collection payments can be postponed (delay_days > 0). A postponed payment
  stays postponed until collected. The delay only changes the status; late
  fees still accrue from due date + grace.

SEE ALSO:
  - latefee.go: Late fee and total amount
  - management/: The owner side
*/
package lease

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/generic"
)

// Kind is the contract kind of tenant leases.
const Kind generic.ContractKind = "lease"

// Direction is the generic.Direction of lease contracts.
type Direction struct{}

// Compile-time check that Direction implements generic.Direction
var _ generic.Direction = Direction{}

func (Direction) Kind() generic.ContractKind { return Kind }

func (Direction) Prepare(c generic.Contract, o *generic.Obligation) {
	o.Amount = c.Rate.Mul(decimal.NewFromInt(int64(o.CoveredMonths())))
}

func (Direction) SupportsDelay() bool { return true }

func init() {
	generic.RegisterDirection(Direction{})
}
