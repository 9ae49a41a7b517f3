package domain

// Stage is the processing state of a document in the pipeline.
// Documents move forward one stage at a time; Failed is terminal
// and reachable from any stage.
type Stage int

const (
	// StageExtracted means raw text and metadata were read from the file.
	StageExtracted Stage = iota

	// StageCleaned means the strict cleaning policy was applied.
	StageCleaned

	// StageSegmented means the classifier split the text into chunks.
	StageSegmented

	// StageFiltered means low-value chunks were removed.
	StageFiltered

	// StageEmbedded means every surviving chunk has a vector.
	StageEmbedded

	// StageIndexed means the vectors are queryable.
	StageIndexed

	// StageFailed is terminal.
	StageFailed
)

var stageNames = map[Stage]string{
	StageExtracted: "extracted",
	StageCleaned:   "cleaned",
	StageSegmented: "segmented",
	StageFiltered:  "filtered",
	StageEmbedded:  "embedded",
	StageIndexed:   "indexed",
	StageFailed:    "failed",
}

// String returns the lowercase stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler so stages serialise by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
