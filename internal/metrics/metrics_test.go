package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the counter samples of family whose labels include want.
func counterValue(t *testing.T, c *Collector, family string, want map[string]string) float64 {
	t.Helper()

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m, want) {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRecordOperation(t *testing.T) {
	c := New("tabula")

	c.RecordOperation("t1", "AddColumn", nil, 5*time.Millisecond)
	c.RecordOperation("t1", "AddColumn", nil, 5*time.Millisecond)
	c.RecordOperation("t1", "ModifyColumn", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, c, "tabula_schema_operations_total",
		map[string]string{"table": "t1", "op": "AddColumn", "status": StatusOK}))
	assert.Equal(t, 1.0, counterValue(t, c, "tabula_schema_operations_total",
		map[string]string{"op": "ModifyColumn", "status": StatusError}))
}

func TestRecordEnsure(t *testing.T) {
	c := New("tabula")

	c.RecordEnsure("t1", 0, nil)
	c.RecordEnsure("t1", 3, nil)
	c.RecordEnsure("t1", 1, errors.New("boom"))

	for _, result := range []string{EnsureNoop, EnsureApplied, EnsureFailed} {
		assert.Equal(t, 1.0, counterValue(t, c, "tabula_ensure_total",
			map[string]string{"table": "t1", "result": result}), result)
	}
}

func TestRecordStatement(t *testing.T) {
	c := New("tabula")

	c.RecordStatement("select", nil, time.Millisecond)
	c.RecordStatement("insert", errors.New("constraint"), time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, c, "tabula_query_statements_total",
		map[string]string{"kind": "select", "status": StatusOK}))
	assert.Equal(t, 1.0, counterValue(t, c, "tabula_query_statements_total",
		map[string]string{"kind": "insert", "status": StatusError}))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordOperation("t", "AddColumn", nil, 0)
		c.RecordEnsure("t", 1, nil)
		c.RecordStatement("select", nil, 0)
	})
	assert.Nil(t, c.Registry())
}

func TestHandler(t *testing.T) {
	c := New("tabula")
	c.RecordEnsure("t1", 1, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tabula_ensure_total")
}
