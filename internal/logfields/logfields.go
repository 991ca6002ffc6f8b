package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyDoc        = "document"
	KeyEngine     = "engine"
	KeyEdits      = "edits"
	KeyMode       = "mode"
	KeyQual       = "qual"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Doc(id string) slog.Attr         { return slog.String(KeyDoc, id) }
func Engine(name string) slog.Attr    { return slog.String(KeyEngine, name) }
func Edits(n int) slog.Attr           { return slog.Int(KeyEdits, n) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Qual(q string) slog.Attr         { return slog.String(KeyQual, q) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
