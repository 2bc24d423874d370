package model

// ServerConfig holds runtime parameters set via CLI flags. The per-sheet
// values are defaults a generate request can override.
type ServerConfig struct {
	DefaultQuestionCount int      // used when a generate request omits the count
	DefaultCorrectMarks  *float64 // nil means no marking scheme by default
	DefaultWrongMarks    *float64
	MaxUploadBytes       int64 // cap on uploaded key files
	BasePath             string
}
