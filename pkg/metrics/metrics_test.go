package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	SharedClauses.Inc()
	ExchangedUnits.Add(2)

	fams, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range fams {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"parsat_shared_clauses_total",
		"parsat_rejected_clauses_total",
		"parsat_retrieved_clauses_total",
		"parsat_exchanged_units_total",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}
