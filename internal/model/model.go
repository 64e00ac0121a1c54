// Package model defines domain entities used by services and repositories.
package model

// Action is one recorded sustainability activity.
type Action struct {
	ID     int64   `json:"id"`
	Action string  `json:"action"`
	Date   string  `json:"date"` // stored verbatim, no timezone normalization
	Points float64 `json:"points"`
}

// ActionInput carries the three client-supplied fields of a create or full replace.
type ActionInput struct {
	Action string  `json:"action"`
	Date   string  `json:"date"`
	Points float64 `json:"points"`
}

// ActionPatch carries a subset of fields; nil means "keep the stored value".
type ActionPatch struct {
	Action *string  `json:"action,omitempty"`
	Date   *string  `json:"date,omitempty"`
	Points *float64 `json:"points,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p ActionPatch) Empty() bool {
	return p.Action == nil && p.Date == nil && p.Points == nil
}

// Apply returns a copy of a with the supplied fields overwritten. The id never changes.
func (p ActionPatch) Apply(a Action) Action {
	if p.Action != nil {
		a.Action = *p.Action
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Points != nil {
		a.Points = *p.Points
	}
	return a
}

// DeleteResult is the confirmation payload of a delete.
type DeleteResult struct {
	Message         string `json:"message"`
	DeletedActionID int64  `json:"deletedActionId"`
}

// ReadStatus tags how a store produced the collection it returned.
type ReadStatus int

const (
	// ReadOK means the stored collection was parsed as-is.
	ReadOK ReadStatus = iota
	// ReadInitialized means no collection existed and an empty one was written.
	ReadInitialized
	// ReadRecovered means the stored document was corrupt, was moved aside and reset.
	ReadRecovered
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadInitialized:
		return "initialized"
	case ReadRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// ReadResult is the outcome of reading the whole collection.
type ReadResult struct {
	Actions    []Action
	Status     ReadStatus
	BackupPath string // set only when Status == ReadRecovered
}
