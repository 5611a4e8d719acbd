package output

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// queueDepthCollector reports each live Output's current queue depth on
// every scrape, rather than updating a gauge from inside the worker
// goroutine. Shaped after the teacher's promCollector (go/bindings/metrics.go
// in github.com/estuary/flow): a Collector that reads live state at Collect
// time instead of being pushed to.
type queueDepthCollector struct {
	desc *prometheus.Desc

	mu      sync.Mutex
	outputs map[*Output]struct{}
}

var queueDepth = &queueDepthCollector{
	desc: prometheus.NewDesc(
		"multitouch_output_queue_depth",
		"Number of packets currently queued for an output's worker goroutine.",
		[]string{"output"}, nil,
	),
	outputs: make(map[*Output]struct{}),
}

func init() {
	prometheus.MustRegister(queueDepth)
}

func registerQueueGauge(out *Output) {
	queueDepth.mu.Lock()
	defer queueDepth.mu.Unlock()
	queueDepth.outputs[out] = struct{}{}
}

func unregisterQueueGauge(out *Output) {
	queueDepth.mu.Lock()
	defer queueDepth.mu.Unlock()
	delete(queueDepth.outputs, out)
}

func (c *queueDepthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *queueDepthCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	outs := make([]*Output, 0, len(c.outputs))
	for o := range c.outputs {
		outs = append(outs, o)
	}
	c.mu.Unlock()

	for _, o := range outs {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(len(o.queue)), o.name)
	}
}
