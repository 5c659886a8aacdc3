package offline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func testCoordinator(t *testing.T, net Fetcher) *Coordinator {
	t.Helper()
	origin, _ := url.Parse(testOrigin)
	return NewCoordinator(origin, net, zap.NewNop())
}

func TestRegisterActivatesFirstWorker(t *testing.T) {
	s := testStorage(t)
	net := newFakeNet(shellPages())
	c := testCoordinator(t, net)
	cfg := testConfig("v1")
	cfg.SkipWaiting = false
	w := testWorker(t, s, net, cfg)

	if err := c.Register(context.Background(), w); err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.Active() != w || w.State() != StateActive {
		t.Errorf("first worker should activate without waiting, state %s", w.State())
	}
	reply, err := c.Post(context.Background(), Message{Type: MessageGetVersion})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if reply.Version != "tx-resource-hub-v1" {
		t.Errorf("version = %q", reply.Version)
	}
}

func TestVersionBumpPurgesStaleStores(t *testing.T) {
	s := testStorage(t)
	net := newFakeNet(shellPages())
	c := testCoordinator(t, net)

	v1 := testWorker(t, s, net, testConfig("v1"))
	if err := c.Register(context.Background(), v1); err != nil {
		t.Fatalf("register v1: %v", err)
	}
	v1.Handle(context.Background(), get(testOrigin+"data/resources.json"))
	if err := s.Bucket("someone-else").Put("k", okResponse("x")); err != nil {
		t.Fatal(err)
	}

	v2 := testWorker(t, s, net, testConfig("v2"))
	if err := c.Register(context.Background(), v2); err != nil {
		t.Fatalf("register v2: %v", err)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{"tx-resource-hub-static-v2"}, keys); diff != "" {
		t.Errorf("stores after bump (-want +got):\n%s", diff)
	}
	if v1.State() != StateRedundant {
		t.Errorf("old worker state = %s, want redundant", v1.State())
	}
	if c.Version() != "tx-resource-hub-v2" {
		t.Errorf("version = %q", c.Version())
	}
}

func TestFailedInstallKeepsPreviousWorker(t *testing.T) {
	s := testStorage(t)
	net := newFakeNet(shellPages())
	c := testCoordinator(t, net)

	v1 := testWorker(t, s, net, testConfig("v1"))
	if err := c.Register(context.Background(), v1); err != nil {
		t.Fatalf("register v1: %v", err)
	}

	cfg := testConfig("v2")
	cfg.Shell = append(cfg.Shell, "./js/missing.js")
	v2 := testWorker(t, s, net, cfg)
	if err := c.Register(context.Background(), v2); err == nil {
		t.Fatal("expected install failure")
	}

	if c.Active() != v1 || v1.State() != StateActive {
		t.Errorf("previous worker should keep serving")
	}
	if ok, _ := s.Has(v1.StaticStore()); !ok {
		t.Error("previous static store was purged")
	}
	if ok, _ := s.Has(v2.StaticStore()); ok {
		t.Error("failed version left a store behind")
	}
}

func TestSkipWaitingMessage(t *testing.T) {
	s := testStorage(t)
	net := newFakeNet(shellPages())
	c := testCoordinator(t, net)

	v1 := testWorker(t, s, net, testConfig("v1"))
	if err := c.Register(context.Background(), v1); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig("v2")
	cfg.SkipWaiting = false
	v2 := testWorker(t, s, net, cfg)
	if err := c.Register(context.Background(), v2); err != nil {
		t.Fatal(err)
	}

	if c.Waiting() != v2 || v2.State() != StateInstalled {
		t.Fatalf("v2 should wait, state %s", v2.State())
	}
	if c.Version() != "tx-resource-hub-v1" {
		t.Errorf("version while waiting = %q", c.Version())
	}

	reply, err := c.Post(context.Background(), Message{Type: MessageSkipWaiting})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !reply.Activated || reply.Version != "tx-resource-hub-v2" {
		t.Errorf("reply = %+v", reply)
	}
	if c.Waiting() != nil {
		t.Error("waiting worker should be cleared")
	}

	reply, err = c.Post(context.Background(), Message{Type: MessageSkipWaiting})
	if err != nil || reply.Activated {
		t.Errorf("second skip waiting: reply=%+v err=%v", reply, err)
	}

	if _, err := c.Post(context.Background(), Message{Type: "PING"}); err == nil {
		t.Error("expected error for unknown message")
	}
}

func TestServeHTTPOffline(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<h1>home</h1>"))
		case "/offline.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<h1>offline</h1>"))
		case "/css/styles.css":
			w.Header().Set("Content-Type", "text/css")
			w.Write([]byte("body{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	s := testStorage(t)
	scope, _ := url.Parse(origin.URL + "/")
	fetcher := &HTTPFetcher{Client: &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}}
	c := NewCoordinator(scope, fetcher, zap.NewNop())

	cfg := testConfig("v1")
	cfg.Scope = scope
	w, err := NewWorker(cfg, s, fetcher, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Register(context.Background(), w); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, VersionPath, nil))
	var reply Reply
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Version != "tx-resource-hub-v1" {
		t.Errorf("version = %q", reply.Version)
	}

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, SkipWaitingPath, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET skip-waiting status = %d", rec.Code)
	}

	origin.Close()

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/css/styles.css", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Errorf("cached asset: %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/css" {
		t.Errorf("content type = %q", ct)
	}

	req := httptest.NewRequest(http.MethodGet, "/submit.html", nil)
	req.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "offline") {
		t.Errorf("navigation while offline = %q", rec.Body.String())
	}
}

func TestServeHTTPWithoutWorker(t *testing.T) {
	net := newFakeNet(map[string]string{testOrigin + "a.txt": "hello"})
	c := testCoordinator(t, net)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a.txt", nil))
	if rec.Body.String() != "hello" {
		t.Errorf("body = %q", rec.Body.String())
	}

	net.setDown(true)
	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a.txt", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestResumeWorksOffline(t *testing.T) {
	s := testStorage(t)
	net := newFakeNet(shellPages())

	first := testCoordinator(t, net)
	if err := first.Register(context.Background(), testWorker(t, s, net, testConfig("v1"))); err != nil {
		t.Fatalf("register: %v", err)
	}

	net.setDown(true)
	restarted := testCoordinator(t, net)
	w := testWorker(t, s, net, testConfig("v1"))
	ok, err := restarted.Resume(context.Background(), w)
	if err != nil || !ok {
		t.Fatalf("resume: ok=%v err=%v", ok, err)
	}
	if restarted.Version() != "tx-resource-hub-v1" {
		t.Errorf("version = %q", restarted.Version())
	}
	resp := w.Handle(context.Background(), get(testOrigin+"css/styles.css"))
	if string(resp.Body) != "body{}" {
		t.Errorf("body = %q", resp.Body)
	}

	fresh := testWorker(t, s, net, testConfig("v2"))
	if ok, _ := restarted.Resume(context.Background(), fresh); ok {
		t.Error("resumed a version that was never installed")
	}
}

func TestUpstreamKeepsOriginPath(t *testing.T) {
	tests := []struct {
		origin string
		path   string
		query  string
		want   string
	}{
		{"http://hub.test/", "/", "", "http://hub.test/"},
		{"http://hub.test/", "/css/styles.css", "", "http://hub.test/css/styles.css"},
		{"http://hub.test/site/", "/", "", "http://hub.test/site/"},
		{"http://hub.test/site", "/", "", "http://hub.test/site/"},
		{"http://hub.test/site", "/css/styles.css", "", "http://hub.test/site/css/styles.css"},
		{"http://hub.test/site/", "/data/resources.json", "v=2", "http://hub.test/site/data/resources.json?v=2"},
		{"http://hub.test/site/", "/", "key=free-food", "http://hub.test/site/?key=free-food"},
	}
	for _, tt := range tests {
		origin, _ := url.Parse(tt.origin)
		c := NewCoordinator(origin, newFakeNet(nil), zap.NewNop())
		got := c.upstream(&url.URL{Path: tt.path, RawQuery: tt.query}).String()
		if got != tt.want {
			t.Errorf("upstream(%s, %s?%s) = %q, want %q", tt.origin, tt.path, tt.query, got, tt.want)
		}
	}
}

func TestServeHTTPSubpathOrigin(t *testing.T) {
	const site = testOrigin + "TSA-Web-Design-2025/"
	pages := map[string]string{}
	for u, body := range shellPages() {
		pages[site+strings.TrimPrefix(u, testOrigin)] = body
	}
	s := testStorage(t)
	net := newFakeNet(pages)
	scope, _ := url.Parse(strings.TrimSuffix(site, "/"))
	c := NewCoordinator(scope, net, zap.NewNop())

	cfg := testConfig("v1")
	cfg.Scope = scope
	if err := c.Register(context.Background(), testWorker(t, s, net, cfg)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok, _ := s.Bucket("tx-resource-hub-static-v1").Match(site + "css/styles.css"); !ok {
		t.Fatal("stylesheet was not precached under the site path")
	}

	nav := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()
		c.ServeHTTP(rec, req)
		return rec
	}

	if rec := nav("/"); rec.Code != http.StatusOK || rec.Body.String() != "<h1>home</h1>" {
		t.Errorf("online home: %d %q", rec.Code, rec.Body.String())
	}

	net.setDown(true)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/css/styles.css", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Errorf("offline stylesheet: %d %q", rec.Code, rec.Body.String())
	}
	if rec := nav("/missing.html"); rec.Code != http.StatusOK || rec.Body.String() != "<h1>offline</h1>" {
		t.Errorf("offline navigation: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSupersededWorkerCannotRecreateStores(t *testing.T) {
	s := testStorage(t)
	net := newFakeNet(shellPages())
	c := testCoordinator(t, net)

	v1 := testWorker(t, s, net, testConfig("v1"))
	if err := c.Register(context.Background(), v1); err != nil {
		t.Fatalf("register v1: %v", err)
	}

	const data = testOrigin + "data/resources.json"
	gate := make(chan struct{})
	net.setGate(gate)
	done := make(chan *Response, 1)
	go func() {
		done <- v1.Handle(context.Background(), get(data))
	}()
	deadline := time.Now().Add(2 * time.Second)
	for net.count(data) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("data request never reached the network")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Only the request already in flight stays blocked.
	net.setGate(nil)

	v2 := testWorker(t, s, net, testConfig("v2"))
	if err := c.Register(context.Background(), v2); err != nil {
		t.Fatalf("register v2: %v", err)
	}
	close(gate)

	resp := <-done
	if !resp.OK() || string(resp.Body) != `[{"name":"A"}]` {
		t.Errorf("in-flight response = %d %q", resp.Status, resp.Body)
	}
	v1.Wait()

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{"tx-resource-hub-static-v2"}, keys); diff != "" {
		t.Errorf("stores after in-flight write (-want +got):\n%s", diff)
	}
	if v1.State() != StateRedundant {
		t.Errorf("v1 state = %s, want redundant", v1.State())
	}
}
