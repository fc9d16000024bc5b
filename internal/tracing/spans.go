package tracing

// Span names.
const (
	SpanIndexRebuild  = "index.rebuild"
	SpanBatchGenerate = "store.generate_batch"
	SpanBench         = "bench.run"
)

// Span attribute keys.
const (
	AttrItems         = "list.items"
	AttrExtents       = "index.extents"
	AttrBounded       = "index.bounded"
	AttrRebuildReason = "index.reason"
	AttrBatchCount    = "batch.count"
	AttrBatchOutcome  = "batch.outcome"
)
