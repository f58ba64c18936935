// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	vectorSearchTotal     *expvar.Int
	vectorSearchLatencyMS *expvar.Int

	embeddingTotal     *expvar.Int
	embeddingCacheHits *expvar.Int
	embeddingLatencyMS *expvar.Int

	reasoningTotal     *expvar.Int
	reasoningFallbacks *expvar.Int
	reasoningLatencyMS *expvar.Int

	ingestBatchTotal   *expvar.Int
	ingestPartsTotal   *expvar.Int
	ingestSkippedTotal *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		vectorSearchTotal = expvar.NewInt("partfinder_vector_search_total")
		vectorSearchLatencyMS = expvar.NewInt("partfinder_vector_search_latency_ms")

		embeddingTotal = expvar.NewInt("partfinder_embedding_total")
		embeddingCacheHits = expvar.NewInt("partfinder_embedding_cache_hits")
		embeddingLatencyMS = expvar.NewInt("partfinder_embedding_latency_ms")

		reasoningTotal = expvar.NewInt("partfinder_reasoning_total")
		reasoningFallbacks = expvar.NewInt("partfinder_reasoning_fallbacks_total")
		reasoningLatencyMS = expvar.NewInt("partfinder_reasoning_latency_ms")

		ingestBatchTotal = expvar.NewInt("partfinder_ingest_batches_total")
		ingestPartsTotal = expvar.NewInt("partfinder_ingest_parts_total")
		ingestSkippedTotal = expvar.NewInt("partfinder_ingest_skipped_total")
	})
}

// RecordVectorSearch accumulates nearest-neighbour query counters.
func RecordVectorSearch(duration time.Duration) {
	ensureInit()
	vectorSearchTotal.Add(1)
	if duration > 0 {
		vectorSearchLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordEmbedding accumulates embedding call counters. Cache hits are
// recorded separately so the cache effectiveness stays observable.
func RecordEmbedding(cacheHit bool, duration time.Duration) {
	ensureInit()
	embeddingTotal.Add(1)
	if cacheHit {
		embeddingCacheHits.Add(1)
	}
	if duration > 0 {
		embeddingLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordReasoning accumulates reasoning call counters. fallback reports
// whether the deterministic selection path was taken instead of the
// model's answer.
func RecordReasoning(fallback bool, duration time.Duration) {
	ensureInit()
	reasoningTotal.Add(1)
	if fallback {
		reasoningFallbacks.Add(1)
	}
	if duration > 0 {
		reasoningLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordIngest accumulates batch ingestion counters.
func RecordIngest(ingested, skipped int) {
	ensureInit()
	ingestBatchTotal.Add(1)
	if ingested > 0 {
		ingestPartsTotal.Add(int64(ingested))
	}
	if skipped > 0 {
		ingestSkippedTotal.Add(int64(skipped))
	}
}
