package sitemap

// Reason explains a Fallback.
type Reason string

const (
	ReasonNone           Reason = "none"
	ReasonAPIUnavailable Reason = "api_unavailable"
	ReasonEmpty          Reason = "empty"
	ReasonFetchFailed    Reason = "fetch_failed"
	ReasonInvalidRoute   Reason = "invalid_route"
)

// Outcome is the result of route generation: either Ok with the full route
// set, or Fallback with the static routes and the reason dynamic content
// was dropped.
type Outcome struct {
	routes   []Route
	reason   Reason
	fallback bool
	cause    error
}

// Ok creates a successful outcome.
func Ok(routes []Route) Outcome {
	return Outcome{routes: routes, reason: ReasonNone}
}

// Fallback creates a degraded outcome. cause may be nil.
func Fallback(reason Reason, routes []Route, cause error) Outcome {
	return Outcome{routes: routes, reason: reason, fallback: true, cause: cause}
}

func (o Outcome) IsOk() bool       { return !o.fallback }
func (o Outcome) IsFallback() bool { return o.fallback }
func (o Outcome) Routes() []Route  { return o.routes }

// Reason is ReasonNone for Ok outcomes.
func (o Outcome) Reason() Reason { return o.reason }

// Cause is the error that triggered a Fallback, if any.
func (o Outcome) Cause() error { return o.cause }

// Label is "ok" or "fallback", for metrics and events.
func (o Outcome) Label() string {
	if o.fallback {
		return "fallback"
	}
	return "ok"
}

// Match calls onOk or onFallback depending on the outcome.
func (o Outcome) Match(onOk func([]Route), onFallback func(Reason, []Route)) {
	if o.fallback {
		onFallback(o.reason, o.routes)
		return
	}
	onOk(o.routes)
}
