package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyResource   = "resource"
	KeyURL        = "url"
	KeyPage       = "page"
	KeyPerPage    = "per_page"
	KeyStatus     = "status"
	KeyOutcome    = "outcome"
	KeyReason     = "reason"
	KeyRoutes     = "routes"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Resource(r string) slog.Attr     { return slog.String(KeyResource, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Page(p int) slog.Attr            { return slog.Int(KeyPage, p) }
func PerPage(n int) slog.Attr         { return slog.Int(KeyPerPage, n) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Routes(n int) slog.Attr          { return slog.Int(KeyRoutes, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
