// Package access interprets the per-flag access levels carried on mission
// records. Status changes and document operations check these before
// touching storage.
package access

type Level string

const (
	LevelEdit     Level = "edit"
	LevelView     Level = "view"
	LevelNoAccess Level = "noaccess"
)

// Normalize maps unknown strings to noaccess, the safe default.
func Normalize(level string) Level {
	switch Level(level) {
	case LevelEdit, LevelView, LevelNoAccess:
		return Level(level)
	default:
		return LevelNoAccess
	}
}

// CanView reports whether the flag's documents may be opened.
func CanView(level string) bool {
	l := Normalize(level)
	return l == LevelEdit || l == LevelView
}

// CanEdit reports whether the flag's documents and status may be changed.
func CanEdit(level string) bool {
	return Normalize(level) == LevelEdit
}
