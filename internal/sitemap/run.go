package sitemap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Result describes one generate-and-write run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	// RouteCount is the number of routes in the sitemap actually written.
	RouteCount int
	Written    []string
	// MinimalWrite is set when writing the full sitemap failed and the
	// static sitemap was written instead; WriteErr holds that failure.
	MinimalWrite bool
	WriteErr     error
	// LegacyErr is set when the legacy directory could not be updated. The
	// primary artifacts are unaffected.
	LegacyErr error
}

// Run generates routes, renders both artifacts for siteURL and writes them.
// The error is non-nil only when not even the static sitemap could be written.
func (g *Generator) Run(ctx context.Context, siteURL string, w Writer) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: g.now()}
	logger := g.logger.With(logfields.RunID(res.RunID))
	start := time.Now()

	res.Outcome = g.Generate(ctx)
	res.Outcome.Match(
		func(routes []Route) {
			logger.DebugContext(ctx, "Generated routes", logfields.Routes(len(routes)))
		},
		func(reason Reason, _ []Route) {
			logger.WarnContext(ctx, "CMS content unavailable, using static sitemap",
				logfields.Reason(string(reason)),
				logfields.Error(res.Outcome.Cause()))
		})

	robots := RenderRobots(siteURL)
	routes := res.Outcome.Routes()
	report, err := renderAndWrite(siteURL, routes, robots, w)
	if err != nil && res.Outcome.IsOk() {
		logger.ErrorContext(ctx, "Writing sitemap failed, retrying with static routes", logfields.Error(err))
		res.MinimalWrite = true
		res.WriteErr = err
		routes = StaticRoutes(res.StartedAt)
		report, err = renderAndWrite(siteURL, routes, robots, w)
	}
	res.Written = report.Written
	res.LegacyErr = report.LegacyErr
	res.Duration = time.Since(start)
	if res.LegacyErr != nil {
		logger.WarnContext(ctx, "Legacy sitemap copy not updated",
			logfields.Path(w.LegacyDir), logfields.Error(res.LegacyErr))
	}

	g.recorder.ObserveGenerationDuration(res.Duration)
	g.recorder.IncSitemapOutcome(res.Outcome.Label(), string(res.Outcome.Reason()))
	if err != nil {
		logger.ErrorContext(ctx, "Writing static sitemap failed", logfields.Error(err))
		return res, err
	}

	res.RouteCount = len(routes)
	g.recorder.SetSitemapRoutes(res.RouteCount)
	logger.InfoContext(ctx, "Sitemap written",
		logfields.Outcome(res.Outcome.Label()),
		logfields.Reason(string(res.Outcome.Reason())),
		logfields.Routes(res.RouteCount),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

func renderAndWrite(siteURL string, routes []Route, robots []byte, w Writer) (WriteReport, error) {
	data, err := RenderXML(siteURL, routes)
	if err != nil {
		return WriteReport{}, err
	}
	return w.Write(data, robots)
}
