package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo       = "repository"
	KeyPath       = "path"
	KeyDir        = "directory"
	KeyCycleID    = "cycle_id"
	KeyDurationMS = "duration_ms"
	KeyPort       = "port"
	KeyInterval   = "interval"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Port(p int) slog.Attr            { return slog.Int(KeyPort, p) }
func Interval(s string) slog.Attr     { return slog.String(KeyInterval, s) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
