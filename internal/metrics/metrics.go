package metrics

import (
	"sync"
	"time"
)

const latencyWindow = 512

// Collector keeps in-process counters for the /metrics endpoint.
// Latencies are held in a fixed ring so memory stays bounded.
type Collector struct {
	mu sync.Mutex

	startedAt time.Time

	requestsTotal    int64
	requestsFailed   int64
	requestsDegraded int64
	byChannel        map[string]int64
	llmRetries       int64
	actionsParsed    int64
	actionsDiscarded int64
	actionsDispatch  int64
	tokensPrompt     int64
	tokensResponse   int64

	latencies [latencyWindow]int64
	latIdx    int
	latCount  int
}

// NewCollector creates a metrics collector
func NewCollector() *Collector {
	return &Collector{
		startedAt: time.Now().UTC(),
		byChannel: make(map[string]int64),
	}
}

// RecordRequest records one processed message. The channel set is the
// fixed inbound enum, so the per-channel map stays bounded.
func (c *Collector) RecordRequest(channel string, latencyMs int64, degraded, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestsTotal++
	if channel != "" {
		c.byChannel[channel]++
	}
	if failed {
		c.requestsFailed++
	}
	if degraded {
		c.requestsDegraded++
	}

	c.latencies[c.latIdx] = latencyMs
	c.latIdx = (c.latIdx + 1) % latencyWindow
	if c.latCount < latencyWindow {
		c.latCount++
	}
}

// RecordLLMRetry counts a retried provider call
func (c *Collector) RecordLLMRetry() {
	c.mu.Lock()
	c.llmRetries++
	c.mu.Unlock()
}

// RecordTokens accumulates token usage
func (c *Collector) RecordTokens(prompt, response int) {
	c.mu.Lock()
	c.tokensPrompt += int64(prompt)
	c.tokensResponse += int64(response)
	c.mu.Unlock()
}

// RecordActions counts parsed, discarded, and dispatched actions
func (c *Collector) RecordActions(parsed, discarded, dispatched int) {
	c.mu.Lock()
	c.actionsParsed += int64(parsed)
	c.actionsDiscarded += int64(discarded)
	c.actionsDispatch += int64(dispatched)
	c.mu.Unlock()
}

// Snapshot is the point-in-time view served by /metrics
type Snapshot struct {
	UptimeSeconds     int64            `json:"uptime_seconds"`
	RequestsTotal     int64            `json:"requests_total"`
	RequestsFailed    int64            `json:"requests_failed"`
	RequestsDegraded  int64            `json:"requests_degraded"`
	RequestsByChannel map[string]int64 `json:"requests_by_channel,omitempty"`
	LLMRetries        int64            `json:"llm_retries"`
	ActionsParsed     int64            `json:"actions_parsed"`
	ActionsDiscarded  int64            `json:"actions_discarded"`
	ActionsDispatch   int64            `json:"actions_dispatched"`
	PromptTokens      int64            `json:"prompt_tokens"`
	ResponseTokens    int64            `json:"response_tokens"`
	AvgLatencyMs      int64            `json:"avg_latency_ms"`
	MaxLatencyMs      int64            `json:"max_latency_ms"`
	ErrorRate         float64          `json:"error_rate"`
}

// Snapshot returns current counter values
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum, max int64
	for i := 0; i < c.latCount; i++ {
		v := c.latencies[i]
		sum += v
		if v > max {
			max = v
		}
	}

	var avg int64
	if c.latCount > 0 {
		avg = sum / int64(c.latCount)
	}

	var errRate float64
	if c.requestsTotal > 0 {
		errRate = float64(c.requestsFailed) / float64(c.requestsTotal)
	}

	byChannel := make(map[string]int64, len(c.byChannel))
	for k, v := range c.byChannel {
		byChannel[k] = v
	}

	return Snapshot{
		UptimeSeconds:     int64(time.Since(c.startedAt).Seconds()),
		RequestsTotal:     c.requestsTotal,
		RequestsFailed:    c.requestsFailed,
		RequestsDegraded:  c.requestsDegraded,
		RequestsByChannel: byChannel,
		LLMRetries:        c.llmRetries,
		ActionsParsed:     c.actionsParsed,
		ActionsDiscarded:  c.actionsDiscarded,
		ActionsDispatch:   c.actionsDispatch,
		PromptTokens:      c.tokensPrompt,
		ResponseTokens:    c.tokensResponse,
		AvgLatencyMs:      avg,
		MaxLatencyMs:      max,
		ErrorRate:         errRate,
	}
}
