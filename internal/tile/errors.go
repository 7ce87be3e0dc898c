package tile

import "fmt"

// FormatError reports input text that does not match the tagged tile
// structure: a missing width declaration, an unterminated block, or a
// non-numeric tile ID.
type FormatError struct {
	Offset int64 // Byte offset into the decoded document, -1 if unknown
	TileID int   // Offending tile, -1 if not inside a tile
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.TileID >= 0:
		return fmt.Sprintf("format error at offset %d (tile %d): %s", e.Offset, e.TileID, e.Reason)
	case e.Offset >= 0:
		return fmt.Sprintf("format error at offset %d: %s", e.Offset, e.Reason)
	default:
		return "format error: " + e.Reason
	}
}

// MissingTileError reports a tile ID that a layer was expected to carry.
type MissingTileError struct {
	ID    int
	X, Y  int
	Layer string
}

func (e *MissingTileError) Error() string {
	return fmt.Sprintf("%s layer has no tile %d at (%d,%d)", e.Layer, e.ID, e.X, e.Y)
}

// ConfigurationError reports caller parameters that violate an invariant.
// It is raised before any transformation begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Configf builds a ConfigurationError with a formatted reason.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
