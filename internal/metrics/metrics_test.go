package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ChallengeGenerated("english", OutcomeGenerated)
	c.ChallengeGenerated("english", OutcomeGenerated)
	c.ChallengeGenerated("english", OutcomeNoContent)
	c.StoreError("save_progress", PathWrite)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.challenges.WithLabelValues("english", OutcomeGenerated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.challenges.WithLabelValues("english", OutcomeNoContent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storeErrors.WithLabelValues("save_progress", PathWrite)))
}

func TestNilCollectorsAreNoops(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.ChallengeGenerated("english", OutcomeGenerated)
		c.StoreError("get_progress", PathRead)
	})
}
