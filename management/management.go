// Package management implements owner management contracts.
//
// A management contract binds an owner to a property. Its obligations are
// supply payments: the proceeds the company remits to the owner for each
// period, after keeping its commission and deducting recorded expenses.
// Supply amounts are unknown when the schedule is generated; they come from
// reconciling the tenant payments actually collected (reconcile.go).
package management

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/generic"
)

// Kind is the contract kind of owner management contracts.
const Kind generic.ContractKind = "management"

// Direction is the generic.Direction of management contracts.
type Direction struct{}

var _ generic.Direction = Direction{}

func (Direction) Kind() generic.ContractKind { return Kind }

// Prepare stamps the commission rate and leaves every amount at zero until
// the period is reconciled.
func (Direction) Prepare(c generic.Contract, o *generic.Obligation) {
	o.Amount = decimal.Zero
	o.CommissionRate = c.Rate
	o.CommissionAmount = decimal.Zero
	o.Deductions = decimal.Zero
	o.NetAmount = decimal.Zero
}

func (Direction) SupportsDelay() bool { return false }

func init() {
	generic.RegisterDirection(Direction{})
}

var hundred = decimal.NewFromInt(100)

// Commission returns gross x rate / 100, rate being a percentage.
func Commission(gross, rate decimal.Decimal) decimal.Decimal {
	return gross.Mul(rate).Div(hundred).Round(2)
}
