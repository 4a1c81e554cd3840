// Package browser provides scoped access to a headless Chrome session. A
// Launcher acquires one Session per invocation; the Session is never shared
// across invocations and Close releases it on every exit path.
package browser

import "context"

// Viewport is the emulated page size. Device scale factor is always 1.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions configures a browser session at acquisition time.
type LaunchOptions struct {
	Viewport Viewport

	// ExecPath overrides the Chrome executable discovered on PATH.
	ExecPath string

	// FontsDir, when set, is exported as FONTCONFIG_PATH so bundled fonts
	// resolve inside minimal containers.
	FontsDir string
}

// Launcher acquires browser sessions. Launch may fail if the browser engine
// cannot start; that failure has no dedicated error code and degrades to the
// generic fallback at the boundary.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one page in one headless browser process. All methods honour
// ctx cancellation; the caller owns the timeout budgets.
type Session interface {
	// Navigate drives the page to url and returns the HTTP status of the
	// document response. When waitReady is false the call returns at
	// DOM-content-loaded rather than full load, with a short tolerated
	// grace wait for a minimal page structure.
	Navigate(ctx context.Context, url string, waitReady bool) (int, error)

	// AwaitEvent resolves when the page dispatches the named window event.
	// The listener is installed at call time; cancelling ctx abandons the
	// wait without error beyond ctx.Err.
	AwaitEvent(ctx context.Context, name string) error

	// ReadGlobal serialises window[name] to JSON text inside the page.
	// ok is false when the global is absent, not serialisable or the read
	// timed out; err is reserved for evaluation failures.
	ReadGlobal(ctx context.Context, name string) (text string, ok bool, err error)

	// Screenshot captures the full configured viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// CanvasImage reads the pixel buffer of the canvas matched by selector,
	// returning decoded PNG bytes. It fails if the selector matches nothing
	// or matches a non-canvas element.
	CanvasImage(ctx context.Context, selector string) ([]byte, error)

	// Close tears the session down. Safe to call more than once; release
	// failures are swallowed.
	Close()
}
