package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordSubmission(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := NewWithRegisterer("prompt-builder-test", reg, nil)
	defer obs.Shutdown()

	obs.RecordSubmission(context.Background(), "success", 120*time.Millisecond)
	obs.RecordSubmission(context.Background(), "failure", 30*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "webhook_deliveries") {
			found = true
		}
	}
	assert.True(t, found, "expected webhook_deliveries metric family")
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var obs Observability
	obs.RecordSubmission(context.Background(), "success", time.Second)
	obs.Shutdown()
}
