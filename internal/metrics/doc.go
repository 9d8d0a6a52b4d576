// Package metrics defines Prometheus metrics for the log shipper, covering
// handled events, cache fills, subject resolution and forwarding.
package metrics
