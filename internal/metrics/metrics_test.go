package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/riskscan/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(SignalParticipation, schema.FetchSuccess, 1, time.Second)
	m.ObserveDiscovery(schema.NPMRegistry, 3, 1)
	m.ObserveSnapshotRetry()
	m.ObserveSnapshotWrite(4)
	m.ObserveScan(1, 2)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestObserveFetchCounts(t *testing.T) {
	m := New()
	m.ObserveFetch(SignalParticipation, schema.FetchSuccess, 1, 10*time.Millisecond)
	m.ObserveFetch(SignalParticipation, schema.FetchPendingCalculation, 5, time.Second)
	m.ObserveFetch(SignalContributors, schema.FetchSuccess, 2, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchOutcomes.WithLabelValues(SignalParticipation, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchOutcomes.WithLabelValues(SignalParticipation, "pending_calculation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchOutcomes.WithLabelValues(SignalContributors, "success")))
}

func TestObserveScanAndSnapshot(t *testing.T) {
	m := New()
	m.ObserveScan(7, 3)
	m.ObserveSnapshotWrite(7)
	m.ObserveSnapshotRetry()
	m.ObserveDiscovery(schema.PyPIRegistry, 10, 4)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.reposScored))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reposUnavailable))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.snapshotRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotRetries))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.discovered.WithLabelValues("pypi")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.skippedPackages.WithLabelValues("pypi")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveScan(2, 1)

	path := filepath.Join(t.TempDir(), "riskscan.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "riskscan_repos_scored_total 2")
}
