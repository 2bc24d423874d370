package model

// Report is the renderer-agnostic summary of a sheet session. It carries
// everything an external renderer needs to draw an on-screen summary or a
// paginated export without asking the core for more computation.
type Report struct {
	SessionID string       `json:"session_id"`
	Phase     Phase        `json:"phase"`
	Config    SheetConfig  `json:"config"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Graded    bool         `json:"graded"`
	Result    *GradeResult `json:"result,omitempty"`
}

// SheetView is a read-only snapshot of an open session, used by renderers
// to redraw the sheet between events.
type SheetView struct {
	SessionID    string      `json:"session_id"`
	Phase        Phase       `json:"phase"`
	Config       SheetConfig `json:"config"`
	Responses    ResponseSet `json:"responses"`
	KeySubmitted bool        `json:"key_submitted"`
	ElapsedMS    int64       `json:"elapsed_ms"`
}
