// Package pipeline drives one headless-browser session through the bounded
// navigate → wait → extract sequence shared by the feature and capture
// endpoints. Validators run before anything here is touched; every path
// through a stage releases the session exactly once.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tomasbasham/art-capture/internal/browser"
	"github.com/tomasbasham/art-capture/internal/errcode"
	"github.com/tomasbasham/art-capture/internal/request"
)

// Config carries the timeout budgets and in-page contract names. Zero values
// fall back to the defaults below.
type Config struct {
	// CaptureNavTimeout bounds navigation for the capture endpoint.
	CaptureNavTimeout time.Duration

	// FeatureNavTimeout bounds navigation for the feature endpoint, which
	// only needs DOM-content-loaded to proceed.
	FeatureNavTimeout time.Duration

	// TriggerCeiling is the upper bound on waiting for the readiness event.
	// Hitting it is not an error; extraction proceeds best-effort.
	TriggerCeiling time.Duration

	// GlobalReadCeiling bounds the in-page feature read. Expiry yields an
	// empty feature set, not an error.
	GlobalReadCeiling time.Duration

	// EventName is the window event artwork pages dispatch once rendered.
	EventName string

	// FeatureGlobal is the well-known global holding generative features.
	FeatureGlobal string

	// ChromePath and FontsDir are forwarded to the browser launcher.
	ChromePath string
	FontsDir   string
}

const (
	DefaultCaptureNavTimeout = 300 * time.Second
	DefaultFeatureNavTimeout = 90 * time.Second
	DefaultTriggerCeiling    = 300 * time.Second
	DefaultGlobalReadCeiling = 10 * time.Second

	DefaultEventName     = "token-ready"
	DefaultFeatureGlobal = "tokenFeatures"

	// defaultViewport is the page size for modes that do not specify one.
	defaultViewport = 800
)

func (c Config) withDefaults() Config {
	if c.CaptureNavTimeout == 0 {
		c.CaptureNavTimeout = DefaultCaptureNavTimeout
	}
	if c.FeatureNavTimeout == 0 {
		c.FeatureNavTimeout = DefaultFeatureNavTimeout
	}
	if c.TriggerCeiling == 0 {
		c.TriggerCeiling = DefaultTriggerCeiling
	}
	if c.GlobalReadCeiling == 0 {
		c.GlobalReadCeiling = DefaultGlobalReadCeiling
	}
	if c.EventName == "" {
		c.EventName = DefaultEventName
	}
	if c.FeatureGlobal == "" {
		c.FeatureGlobal = DefaultFeatureGlobal
	}
	return c
}

// Pipeline owns a launcher and runs one session per call. It holds no state
// across invocations.
type Pipeline struct {
	launcher browser.Launcher
	cfg      Config
	logger   *slog.Logger
}

// New creates a Pipeline. A nil logger discards stage logging.
func New(launcher browser.Launcher, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{launcher: launcher, cfg: cfg.withDefaults(), logger: logger}
}

// Capture runs the full capture sequence and returns raw PNG bytes. Oversized
// output is the caller's concern; post-processing happens after the session
// has been released.
func (p *Pipeline) Capture(ctx context.Context, req *request.Capture) ([]byte, error) {
	viewport := browser.Viewport{Width: defaultViewport, Height: defaultViewport}
	if req.Mode == request.ModeViewport {
		viewport = browser.Viewport{Width: req.ResX, Height: req.ResY}
	}

	sess, err := p.launch(ctx, viewport)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := p.navigate(ctx, sess, req.URL, p.cfg.CaptureNavTimeout, true); err != nil {
		return nil, err
	}
	if err := p.awaitReadiness(ctx, sess, req); err != nil {
		return nil, err
	}

	switch req.Mode {
	case request.ModeCanvas:
		raw, err := sess.CanvasImage(ctx, req.CanvasSelector)
		if err != nil {
			p.logger.Info("canvas capture failed", "selector", req.CanvasSelector, "error", err)
			return nil, errcode.Wrap(errcode.CanvasCaptureFailed, err)
		}
		return raw, nil
	default:
		raw, err := sess.Screenshot(ctx)
		if err != nil {
			return nil, errcode.Wrap(errcode.Unknown, err)
		}
		return raw, nil
	}
}

// Features runs the feature-extraction sequence. Pages without a usable
// feature export yield an empty slice, never an error: "couldn't reach the
// page" is hard failure, "page had no features" is a soft empty result.
func (p *Pipeline) Features(ctx context.Context, req *request.Feature) ([]TokenFeature, error) {
	sess, err := p.launch(ctx, browser.Viewport{Width: defaultViewport, Height: defaultViewport})
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := p.navigate(ctx, sess, req.URL, p.cfg.FeatureNavTimeout, false); err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, p.cfg.GlobalReadCeiling)
	text, ok, err := sess.ReadGlobal(readCtx, p.cfg.FeatureGlobal)
	cancel()
	if err != nil {
		return nil, errcode.Wrap(errcode.PageEvaluateFailed, err)
	}
	if !ok {
		return []TokenFeature{}, nil
	}

	return filterFeatures(text), nil
}

func (p *Pipeline) launch(ctx context.Context, viewport browser.Viewport) (browser.Session, error) {
	sess, err := p.launcher.Launch(ctx, browser.LaunchOptions{
		Viewport: viewport,
		ExecPath: p.cfg.ChromePath,
		FontsDir: p.cfg.FontsDir,
	})
	if err != nil {
		p.logger.Error("browser launch failed", "error", err)
		return nil, errcode.Wrap(errcode.Unknown, err)
	}
	return sess, nil
}

// navigate classifies the navigation outcome: timeout, hard failure, or a
// non-200 document response.
func (p *Pipeline) navigate(ctx context.Context, sess browser.Session, url string, budget time.Duration, waitReady bool) error {
	navCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	status, err := sess.Navigate(navCtx, url, waitReady)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			p.logger.Info("navigation timed out", "url", url, "budget", budget)
			return errcode.Wrap(errcode.Timeout, err)
		}
		p.logger.Info("navigation failed", "url", url, "error", err)
		return errcode.Wrap(errcode.Unknown, err)
	}
	if status != 200 {
		p.logger.Info("navigation returned non-200", "url", url, "status", status)
		return errcode.New(errcode.HTTPError)
	}
	return nil
}

// awaitReadiness applies the selected trigger strategy. Neither strategy
// produces an error code of its own; downstream extraction fails if the page
// was not actually ready.
func (p *Pipeline) awaitReadiness(ctx context.Context, sess browser.Session, req *request.Capture) error {
	switch req.Trigger {
	case request.TriggerFnCall:
		eventCtx, cancel := context.WithTimeout(ctx, p.cfg.TriggerCeiling)
		err := sess.AwaitEvent(eventCtx, p.cfg.EventName)
		cancel()
		if err != nil {
			p.logger.Debug("readiness event not observed before ceiling", "event", p.cfg.EventName)
		}
		return nil
	default:
		select {
		case <-time.After(req.Delay):
			return nil
		case <-ctx.Done():
			return errcode.Wrap(errcode.Unknown, ctx.Err())
		}
	}
}
