package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// bodyGraceTimeout bounds the wait for a minimal page structure after a
// DOM-content-loaded navigation. Expiry is tolerated, not fatal.
const bodyGraceTimeout = 5 * time.Second

// ChromeLauncher starts a fresh headless Chrome process per session.
type ChromeLauncher struct{}

// Launch starts Chrome with an emulated viewport and certificate errors
// ignored — some gateways sit behind self-signed or short-lived certificates
// that would otherwise block navigation.
func (ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.FontsDir != "" {
		allocOpts = append(allocOpts, chromedp.Env("FONTCONFIG_PATH="+opts.FontsDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)

	// No-op log funcs suppress chromedp's output for CDP events it cannot
	// unmarshal, which arise from version skew between the installed Chrome
	// and the pinned cdproto definitions. The affected events are dropped.
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...any) {}),
		chromedp.WithErrorf(func(string, ...any) {}),
		chromedp.WithDebugf(func(string, ...any) {}),
	)

	s := &chromeSession{
		ctx:     tabCtx,
		status:  watchDocumentStatus(tabCtx),
		release: func() { cancelTab(); cancelAlloc() },
	}

	// The first Run starts the browser process; a failure here is the
	// unrecoverable launch error.
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(opts.Viewport.Width), int64(opts.Viewport.Height)),
	); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: launch failed: %w", err)
	}

	return s, nil
}

type chromeSession struct {
	ctx    context.Context
	status *statusWatcher

	closeOnce sync.Once
	release   func()
}

func (s *chromeSession) Navigate(ctx context.Context, url string, waitReady bool) (int, error) {
	var err error
	if waitReady {
		err = s.run(ctx, chromedp.Navigate(url))
	} else {
		err = s.run(ctx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, _, errText, err := page.Navigate(url).Do(ctx)
				if err != nil {
					return err
				}
				if errText != "" {
					return fmt.Errorf("navigate: %s", errText)
				}
				return nil
			}),
			awaitPromise(domContentLoadedScript, nil),
		)
	}
	if err != nil {
		return 0, err
	}

	if !waitReady {
		// Best-effort grace wait for the document body to exist. Artwork
		// pages occasionally build their DOM entirely from script, so a
		// miss here is tolerated.
		graceCtx, cancel := context.WithTimeout(ctx, bodyGraceTimeout)
		_ = s.run(graceCtx, chromedp.WaitReady("body", chromedp.ByQuery))
		cancel()
	}

	status, seen := s.status.last()
	if !seen {
		// No document response observed, e.g. an about:blank navigation.
		return 0, fmt.Errorf("browser: no document response for %s", url)
	}
	return status, nil
}

func (s *chromeSession) AwaitEvent(ctx context.Context, name string) error {
	script := fmt.Sprintf(
		`new Promise((resolve) => { window.addEventListener(%q, () => resolve(true), { once: true }); })`,
		name,
	)
	return s.run(ctx, awaitPromise(script, nil))
}

func (s *chromeSession) ReadGlobal(ctx context.Context, name string) (string, bool, error) {
	// JSON.stringify yields undefined for function and symbol values; the
	// null fallback makes those read as absent rather than failing the
	// evaluation result unmarshal.
	script := fmt.Sprintf(`(() => {
		const v = window[%q];
		if (v === undefined) { return null; }
		return JSON.stringify(v) ?? null;
	})()`, name)

	var text *string
	err := s.run(ctx, chromedp.Evaluate(script, &text))
	switch {
	case err == nil:
		if text == nil {
			return "", false, nil
		}
		return *text, true, nil
	case ctx.Err() != nil:
		// The read ceiling elapsed; absence, not failure.
		return "", false, nil
	default:
		return "", false, fmt.Errorf("browser: global read failed: %w", err)
	}
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("browser: screenshot failed: %w", err)
	}
	return buf, nil
}

const canvasDataURLPrefix = "data:image/png;base64,"

func (s *chromeSession) CanvasImage(ctx context.Context, selector string) ([]byte, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el || el.tagName !== 'CANVAS') { return null; }
		return el.toDataURL('image/png');
	})()`, selector)

	var dataURL *string
	if err := s.run(ctx, chromedp.Evaluate(script, &dataURL)); err != nil {
		return nil, fmt.Errorf("browser: canvas read failed: %w", err)
	}
	if dataURL == nil {
		return nil, fmt.Errorf("browser: no canvas matches %q", selector)
	}
	encoded, found := strings.CutPrefix(*dataURL, canvasDataURLPrefix)
	if !found {
		return nil, fmt.Errorf("browser: unexpected canvas data URL for %q", selector)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("browser: canvas decode failed: %w", err)
	}
	return raw, nil
}

func (s *chromeSession) Close() {
	s.closeOnce.Do(s.release)
}

// run executes actions on the session tab while honouring the caller's ctx.
// chromedp actions run on the tab context; a goroutine bridges cancellation
// from the request-scoped ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := mergeCancel(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// mergeCancel derives a context from tab that is additionally cancelled when
// bound is done.
func mergeCancel(tab, bound context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(bound, cancel)
	return ctx, func() { stop(); cancel() }
}

// domContentLoadedScript resolves once the document is interactive, or
// immediately if navigation already got that far.
const domContentLoadedScript = `new Promise((resolve) => {
	if (document.readyState !== 'loading') { resolve(true); return; }
	document.addEventListener('DOMContentLoaded', () => resolve(true), { once: true });
})`

// awaitPromise evaluates script and blocks until the returned promise
// settles.
func awaitPromise(script string, res any) chromedp.Action {
	return chromedp.Evaluate(script, res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	})
}
