package domain

// RawDocument represents opaque bytes read from a file or upload
// before normalisation into a Document.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of file change observed by the watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed or renamed-away file.
	ChangeDeleted
)

// String returns the string representation of the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return unknownDescription
	}
}

// FileChange is a change event for a watched file.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the absolute path of the affected file.
	Path string
}
