package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector()

	c.RecordRequest("web", 100, false, false)
	c.RecordRequest("whatsapp", 300, true, false)
	c.RecordRequest("web", 200, true, true)
	c.RecordLLMRetry()
	c.RecordTokens(150, 40)
	c.RecordActions(2, 1, 2)

	snap := c.Snapshot()

	assert.Equal(t, int64(3), snap.RequestsTotal)
	assert.Equal(t, int64(1), snap.RequestsFailed)
	assert.Equal(t, int64(2), snap.RequestsDegraded)
	assert.Equal(t, int64(2), snap.RequestsByChannel["web"])
	assert.Equal(t, int64(1), snap.RequestsByChannel["whatsapp"])
	assert.Equal(t, int64(1), snap.LLMRetries)
	assert.Equal(t, int64(150), snap.PromptTokens)
	assert.Equal(t, int64(40), snap.ResponseTokens)
	assert.Equal(t, int64(2), snap.ActionsParsed)
	assert.Equal(t, int64(1), snap.ActionsDiscarded)
	assert.Equal(t, int64(200), snap.AvgLatencyMs)
	assert.Equal(t, int64(300), snap.MaxLatencyMs)
	assert.InDelta(t, 1.0/3.0, snap.ErrorRate, 0.001)
}

func TestCollector_LatencyRingStaysBounded(t *testing.T) {
	c := NewCollector()

	for i := 0; i < latencyWindow*2; i++ {
		c.RecordRequest("web", 50, false, false)
	}

	snap := c.Snapshot()
	assert.Equal(t, int64(latencyWindow*2), snap.RequestsTotal)
	assert.Equal(t, int64(50), snap.AvgLatencyMs)
}
