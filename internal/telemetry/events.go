package telemetry

import "time"

// EventType discriminates the kind of telemetry event published by the
// evaluation pipeline.
type EventType string

const (
	EventQueryEval  EventType = "query_eval"
	EventFusionEval EventType = "fusion_eval"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
)

// QueryEvent records the outcome of one single-variant query evaluation or
// one multi-query fusion, depending on Type.
type QueryEvent struct {
	Type         EventType `json:"type"`
	QueryId      string    `json:"query_id"`
	Algorithm    string    `json:"algorithm"`
	VariantCount int       `json:"variant_count"`
	ResultCount  int       `json:"result_count"`
	LatencyUsec  int64     `json:"latency_usec"`
	Timestamp    time.Time `json:"timestamp"`
}
