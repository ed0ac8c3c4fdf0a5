package engine

// EntryAction describes what happened to an entry during conversion.
type EntryAction string

const (
	// ActionConverted means the image was decoded and re-encoded.
	ActionConverted EntryAction = "converted"
	// ActionCopied means the bytes were written unchanged under the original name.
	ActionCopied EntryAction = "copied"
	// ActionKept means the image was already in the target format; bytes are unchanged.
	ActionKept EntryAction = "kept"
	// ActionDirectory means a directory entry was written.
	ActionDirectory EntryAction = "directory"
)

type EntryResult struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Action      EntryAction `json:"action"`
	Warning     error       `json:"-"`
}

// Report summarizes a finished conversion.
type Report struct {
	SourcePath      string        `json:"source_path"`
	DestinationPath string        `json:"destination_path"`
	SourceFormat    SourceFormat  `json:"source_format"`
	Entries         []EntryResult `json:"entries"`
	Warnings        []error       `json:"-"`
}

// Count returns the number of entries that ended with the given action.
func (r *Report) Count(action EntryAction) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
