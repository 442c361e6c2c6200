package generic

import (
	"strings"
)

// =============================================================================
// FILTER - Composable obligation predicates
// =============================================================================

// Filter selects obligations. The same filter evaluates in memory (Matches)
// and compiles to a SQL condition over the obligations table (Where), and
// both evaluations must agree row by row.
//
// Columns referenced by Where: contract_id, kind, due_start, settled_on,
// delay_days. Dates are stored as YYYY-MM-DD text, so string comparison is
// date comparison.
type Filter interface {
	Matches(o Obligation) bool
	Where() (string, []any)
}

// Settled matches obligations with a settlement date.
func Settled() Filter { return settledFilter{} }

// Delayed matches obligations with a positive delay.
func Delayed() Filter { return delayedFilter{} }

func DueStartBefore(d Date) Filter     { return dueStartFilter{op: "<", date: d} }
func DueStartOnOrBefore(d Date) Filter { return dueStartFilter{op: "<=", date: d} }
func DueStartAfter(d Date) Filter      { return dueStartFilter{op: ">", date: d} }
func DueStartOnOrAfter(d Date) Filter  { return dueStartFilter{op: ">=", date: d} }

func ForContract(id ContractID) Filter { return contractFilter{id: id} }
func OfKind(kind ContractKind) Filter  { return kindFilter{kind: kind} }

// All matches when every filter matches. All() matches everything.
func All(filters ...Filter) Filter { return allFilter(filters) }

// Any matches when at least one filter matches. Any() matches nothing.
func Any(filters ...Filter) Filter { return anyFilter(filters) }

func Not(f Filter) Filter { return notFilter{f: f} }

type settledFilter struct{}

func (settledFilter) Matches(o Obligation) bool { return o.SettledOn != nil }
func (settledFilter) Where() (string, []any)    { return "settled_on IS NOT NULL", nil }

type delayedFilter struct{}

func (delayedFilter) Matches(o Obligation) bool { return o.DelayDays > 0 }
func (delayedFilter) Where() (string, []any)    { return "delay_days > 0", nil }

type dueStartFilter struct {
	op   string
	date Date
}

func (f dueStartFilter) Matches(o Obligation) bool {
	switch f.op {
	case "<":
		return o.DueStart.Before(f.date)
	case "<=":
		return o.DueStart.BeforeOrEqual(f.date)
	case ">":
		return o.DueStart.After(f.date)
	case ">=":
		return o.DueStart.AfterOrEqual(f.date)
	}
	return false
}

func (f dueStartFilter) Where() (string, []any) {
	return "due_start " + f.op + " ?", []any{f.date.String()}
}

type contractFilter struct{ id ContractID }

func (f contractFilter) Matches(o Obligation) bool { return o.ContractID == f.id }
func (f contractFilter) Where() (string, []any)    { return "contract_id = ?", []any{string(f.id)} }

type kindFilter struct{ kind ContractKind }

func (f kindFilter) Matches(o Obligation) bool { return o.Kind == f.kind }
func (f kindFilter) Where() (string, []any)    { return "kind = ?", []any{string(f.kind)} }

type allFilter []Filter

func (fs allFilter) Matches(o Obligation) bool {
	for _, f := range fs {
		if !f.Matches(o) {
			return false
		}
	}
	return true
}

func (fs allFilter) Where() (string, []any) {
	return join(fs, " AND ", "1 = 1")
}

type anyFilter []Filter

func (fs anyFilter) Matches(o Obligation) bool {
	for _, f := range fs {
		if f.Matches(o) {
			return true
		}
	}
	return false
}

func (fs anyFilter) Where() (string, []any) {
	return join(fs, " OR ", "1 = 0")
}

type notFilter struct{ f Filter }

func (n notFilter) Matches(o Obligation) bool { return !n.f.Matches(o) }

func (n notFilter) Where() (string, []any) {
	clause, args := n.f.Where()
	return "NOT (" + clause + ")", args
}

func join(fs []Filter, sep, empty string) (string, []any) {
	if len(fs) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(fs))
	var args []any
	for _, f := range fs {
		clause, a := f.Where()
		parts = append(parts, "("+clause+")")
		args = append(args, a...)
	}
	return strings.Join(parts, sep), args
}
