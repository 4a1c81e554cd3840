package browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// statusWatcher observes CDP network events and remembers the status of the
// most recent document response. Redirect chains emit one document response
// per hop, so the final hop wins.
type statusWatcher struct {
	mu     sync.Mutex
	status int
	seen   bool
}

// watchDocumentStatus installs a listener on the tab context. The listener
// lives for the lifetime of the tab; there is exactly one navigation per
// session so no reset is needed.
func watchDocumentStatus(ctx context.Context) *statusWatcher {
	w := &statusWatcher{}
	chromedp.ListenTarget(ctx, func(ev any) {
		res, ok := ev.(*network.EventResponseReceived)
		if !ok || res.Type != network.ResourceTypeDocument {
			return
		}
		w.mu.Lock()
		w.status = int(res.Response.Status)
		w.seen = true
		w.mu.Unlock()
	})
	return w
}

// last returns the status of the last document response and whether any was
// observed at all.
func (w *statusWatcher) last() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.seen
}
