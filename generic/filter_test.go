package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

func TestFilter_WhereComposition(t *testing.T) {
	f := generic.All(
		generic.Not(generic.Settled()),
		generic.ForContract("c1"),
		generic.DueStartBefore(date("2025-03-13")),
	)

	clause, args := f.Where()
	assert.Equal(t, "(NOT (settled_on IS NOT NULL)) AND (contract_id = ?) AND (due_start < ?)", clause)
	assert.Equal(t, []any{"c1", "2025-03-13"}, args)
}

func TestFilter_EmptyCombinators(t *testing.T) {
	clause, args := generic.All().Where()
	assert.Equal(t, "1 = 1", clause)
	assert.Nil(t, args)

	clause, _ = generic.Any().Where()
	assert.Equal(t, "1 = 0", clause)

	o := obligation("2025-01-01", 1)
	assert.True(t, generic.All().Matches(o))
	assert.False(t, generic.Any().Matches(o))
}

func TestFilter_Matches(t *testing.T) {
	o := obligation("2025-03-01", 1)
	o.ContractID = "c1"

	assert.True(t, generic.OfKind(lease.Kind).Matches(o))
	assert.False(t, generic.OfKind("management").Matches(o))
	assert.True(t, generic.DueStartOnOrAfter(date("2025-03-01")).Matches(o))
	assert.False(t, generic.DueStartAfter(date("2025-03-01")).Matches(o))
	assert.True(t, generic.DueStartOnOrBefore(date("2025-03-01")).Matches(o))
	assert.True(t, generic.Any(generic.Settled(), generic.ForContract("c1")).Matches(o))
	assert.False(t, generic.Delayed().Matches(o))
}
