package browser

import (
	"context"
	"errors"
)

// FakeLauncher hands out a scripted FakeSession and records acquisitions.
type FakeLauncher struct {
	Session   *FakeSession
	LaunchErr error

	Launches    int
	LastOptions LaunchOptions
}

func (f *FakeLauncher) Launch(_ context.Context, opts LaunchOptions) (Session, error) {
	f.Launches++
	f.LastOptions = opts
	if f.LaunchErr != nil {
		return nil, f.LaunchErr
	}
	if f.Session == nil {
		f.Session = &FakeSession{NavStatus: 200}
	}
	return f.Session, nil
}

// FakeSession scripts the outcome of each stage and counts teardowns.
type FakeSession struct {
	NavStatus int
	NavErr    error

	// EventFires controls AwaitEvent: when false the wait only ends with
	// ctx cancellation, mimicking a page that never signals readiness.
	EventFires bool

	GlobalJSON   string
	GlobalAbsent bool
	GlobalErr    error

	PNG       []byte
	ShotErr   error
	CanvasPNG []byte
	CanvasErr error

	NavigatedURL string
	WaitedReady  bool
	AwaitedEvent string
	ReadGlobals  []string
	CloseCount   int
}

func (s *FakeSession) Navigate(_ context.Context, url string, waitReady bool) (int, error) {
	s.NavigatedURL = url
	s.WaitedReady = waitReady
	if s.NavErr != nil {
		return 0, s.NavErr
	}
	return s.NavStatus, nil
}

func (s *FakeSession) AwaitEvent(ctx context.Context, name string) error {
	s.AwaitedEvent = name
	if s.EventFires {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *FakeSession) ReadGlobal(_ context.Context, name string) (string, bool, error) {
	s.ReadGlobals = append(s.ReadGlobals, name)
	if s.GlobalErr != nil {
		return "", false, s.GlobalErr
	}
	if s.GlobalAbsent {
		return "", false, nil
	}
	return s.GlobalJSON, true, nil
}

func (s *FakeSession) Screenshot(context.Context) ([]byte, error) {
	if s.ShotErr != nil {
		return nil, s.ShotErr
	}
	if s.PNG == nil {
		return nil, errors.New("no screenshot scripted")
	}
	return s.PNG, nil
}

func (s *FakeSession) CanvasImage(context.Context, string) ([]byte, error) {
	if s.CanvasErr != nil {
		return nil, s.CanvasErr
	}
	if s.CanvasPNG == nil {
		return nil, errors.New("no canvas scripted")
	}
	return s.CanvasPNG, nil
}

func (s *FakeSession) Close() { s.CloseCount++ }
