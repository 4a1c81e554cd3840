package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/browser"
	"github.com/tomasbasham/art-capture/internal/pipeline"
	"github.com/tomasbasham/art-capture/internal/server"
)

const goodURL = "https://ipfs.io/ipfs/QmAbc123/"

func newTestServer(session *browser.FakeSession) (*server.Server, *browser.FakeLauncher) {
	launcher := &browser.FakeLauncher{Session: session}
	allow := allowlist.New([]string{"https://ipfs.io/ipfs/"})
	pipe := pipeline.New(launcher, pipeline.Config{}, nil)
	return server.New(allow, pipe, nil), launcher
}

func TestPreflight(t *testing.T) {
	for _, path := range []string{"/features", "/capture"} {
		srv, launcher := newTestServer(nil)

		req := httptest.NewRequest(http.MethodOptions, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("OPTIONS %s status = %d, want 204", path, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("OPTIONS %s body = %q, want empty", path, rec.Body.String())
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("OPTIONS %s allow-origin = %q", path, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("OPTIONS %s allow-headers = %q", path, got)
		}
		if launcher.Launches != 0 {
			t.Errorf("OPTIONS %s acquired %d browser sessions", path, launcher.Launches)
		}
	}
}

func TestCaptureSuccess(t *testing.T) {
	srv, launcher := newTestServer(&browser.FakeSession{
		NavStatus: 200,
		PNG:       []byte("png-bytes"),
	})

	body := `{"url":"` + goodURL + `","mode":"VIEWPORT","resX":512,"resY":512,"delay":0}`
	rec := post(srv, "/capture", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %q", got)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
	if launcher.Session.CloseCount != 1 {
		t.Errorf("close count = %d, want 1", launcher.Session.CloseCount)
	}
}

func TestCaptureFailuresArePlainTextCodes(t *testing.T) {
	tests := []struct {
		name     string
		session  *browser.FakeSession
		body     string
		want     string
		launches int
	}{
		{
			name: "malformed body",
			body: `{"url":`,
			want: "MISSING_PARAMETERS",
		},
		{
			name: "unlisted gateway",
			body: `{"url":"https://evil.example/","mode":"VIEWPORT","resX":512,"resY":512,"delay":0}`,
			want: "UNSUPPORTED_URL",
		},
		{
			name: "resolution out of range",
			body: `{"url":"` + goodURL + `","mode":"VIEWPORT","resX":10000,"resY":512,"delay":0}`,
			want: "INVALID_PARAMETERS",
		},
		{
			name:     "non-200 navigation",
			session:  &browser.FakeSession{NavStatus: 503},
			body:     `{"url":"` + goodURL + `","mode":"VIEWPORT","resX":512,"resY":512,"delay":0}`,
			want:     "HTTP_ERROR",
			launches: 1,
		},
		{
			name:     "canvas miss",
			session:  &browser.FakeSession{NavStatus: 200},
			body:     `{"url":"` + goodURL + `","mode":"CANVAS","delay":0,"canvasSelector":"#nope"}`,
			want:     "CANVAS_CAPTURE_FAILED",
			launches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, launcher := newTestServer(tt.session)

			rec := post(srv, "/capture", tt.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}

			// Validation failures must never touch the browser.
			if launcher.Launches != tt.launches {
				t.Errorf("launches = %d, want %d", launcher.Launches, tt.launches)
			}
			if tt.session != nil && tt.session.CloseCount != tt.launches {
				t.Errorf("close count = %d, want %d", tt.session.CloseCount, tt.launches)
			}
		})
	}
}

func TestFeaturesSuccess(t *testing.T) {
	srv, _ := newTestServer(&browser.FakeSession{
		NavStatus:  200,
		GlobalJSON: `{"size":"large","count":3,"rare":true,"nested":{"a":1}}`,
	})

	rec := post(srv, "/features", `{"url":"`+goodURL+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}

	var features []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &features); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(features) != 3 {
		t.Fatalf("got %d features, want 3: %+v", len(features), features)
	}
	if features[0].Name != "size" || features[0].Value != "large" {
		t.Errorf("first feature = %+v", features[0])
	}
	if features[1].Name != "count" || features[1].Value != float64(3) {
		t.Errorf("second feature = %+v", features[1])
	}
	if features[2].Name != "rare" || features[2].Value != true {
		t.Errorf("third feature = %+v", features[2])
	}
}

func TestFeaturesAbsentGlobalIsEmptySuccess(t *testing.T) {
	srv, _ := newTestServer(&browser.FakeSession{
		NavStatus:    200,
		GlobalAbsent: true,
	})

	rec := post(srv, "/features", `{"url":"`+goodURL+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestFeaturesFailuresAreJSONErrors(t *testing.T) {
	tests := []struct {
		name     string
		session  *browser.FakeSession
		body     string
		want     string
		launches int
	}{
		{
			name: "unlisted gateway",
			body: `{"url":"https://evil.example/"}`,
			want: "UNSUPPORTED_URL",
		},
		{
			name: "missing url",
			body: `{}`,
			want: "MISSING_PARAMETERS",
		},
		{
			name:     "evaluation failure",
			session:  &browser.FakeSession{NavStatus: 200, GlobalErr: errAny{}},
			body:     `{"url":"` + goodURL + `"}`,
			want:     "PAGE_EVALUATE_FAILED",
			launches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, launcher := newTestServer(tt.session)

			rec := post(srv, "/features", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			var payload map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
			}
			if payload["error"] != tt.want {
				t.Errorf("error = %q, want %q", payload["error"], tt.want)
			}
			if launcher.Launches != tt.launches {
				t.Errorf("launches = %d, want %d", launcher.Launches, tt.launches)
			}
		})
	}
}

type errAny struct{}

func (errAny) Error() string { return "boom" }

func post(srv *server.Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
