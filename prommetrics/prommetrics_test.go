package prommetrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/distkmeans"
	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/prommetrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ distkmeans.MetricsCollector = (*prommetrics.Collector)(nil)

func TestCollector(t *testing.T) {
	c := prommetrics.New()

	c.RecordInit(100, 3, 10*time.Millisecond)
	c.RecordRound(1, time.Millisecond)
	c.RecordRound(2, time.Millisecond)
	c.RecordCollective(collective.OpAllReduce, 48, time.Millisecond, nil)
	c.RecordCollective(collective.OpAllReduce, 48, time.Millisecond, errors.New("boom"))
	c.RecordEmptyCluster(2, 1)

	n, err := testutil.GatherAndCount(c.Registry(), "distkmeans_collectives_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // success and error series

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "distkmeans_rounds_total 2")
	assert.Contains(t, string(body), `distkmeans_collective_bytes_total{op="allreduce"} 96`)
	assert.Contains(t, string(body), `distkmeans_empty_clusters_total{cluster="1"} 1`)
	assert.Contains(t, string(body), "distkmeans_points 100")
}
