package domain

// DocumentRecord is the exported result for one processed document.
type DocumentRecord struct {
	// Metadata is the extraction metadata of the document.
	Metadata map[string]any `json:"metadata" yaml:"metadata"`

	// Chunks are the surviving chunks in source order.
	Chunks []RecordChunk `json:"chunks" yaml:"chunks"`

	// Stats summarises the segmentation and filtering passes.
	Stats DocumentStats `json:"stats" yaml:"stats"`
}

// RecordChunk is a chunk as written to the batch output.
type RecordChunk struct {
	ID        int       `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Embedding []float32 `json:"embedding" yaml:"embedding,flow"`
}

// DocumentStats holds chunk counts before and after filtering.
type DocumentStats struct {
	InitialChunkCount  int `json:"initial_chunk_count" yaml:"initial_chunk_count"`
	FilteredChunkCount int `json:"filtered_chunk_count" yaml:"filtered_chunk_count"`
}

// DocumentFailure records why a document was dropped from a batch.
type DocumentFailure struct {
	// URI identifies the document.
	URI string `json:"uri" yaml:"uri"`

	// Stage is the stage that failed.
	Stage Stage `json:"stage" yaml:"stage"`

	// Reason is the error message.
	Reason string `json:"reason" yaml:"reason"`
}

// BatchResult is the aggregate output of a directory run.
// Records keep the order in which documents were listed.
type BatchResult struct {
	Records  []DocumentRecord
	Failures []DocumentFailure
}

// Processed returns the number of successful documents.
func (b *BatchResult) Processed() int {
	return len(b.Records)
}

// Totals sums the chunk statistics over all records.
func (b *BatchResult) Totals() DocumentStats {
	var total DocumentStats
	for i := range b.Records {
		total.InitialChunkCount += b.Records[i].Stats.InitialChunkCount
		total.FilteredChunkCount += b.Records[i].Stats.FilteredChunkCount
	}
	return total
}
