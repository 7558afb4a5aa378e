package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePlanItemOp(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.ObservePlanItemOp("insert", ResultOK, 3)
	m.ObservePlanItemOp("insert", ResultOK, 0)
	m.ObservePlanItemOp("reposition", ResultConflict, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterPlanItemOps.WithLabelValues("insert", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPlanItemOps.WithLabelValues("reposition", ResultConflict)))

	n, err := testutil.GatherAndCount(reg, "athlos_test_server_plan_items_shifted")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only successful operations are observed")
}
