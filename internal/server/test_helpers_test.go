package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"wiki-race/internal/config"
	"wiki-race/internal/game"
	"wiki-race/internal/generator"
	"wiki-race/internal/wiki"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixedGenerator struct {
	round generator.Round
	err   error
}

func (g *fixedGenerator) Generate(ctx context.Context, seed string) (generator.Round, error) {
	return g.round, g.err
}

type linkMap map[string][]string

func (m linkMap) Links(ctx context.Context, title string, dir wiki.Direction) ([]string, error) {
	links, ok := m[title]
	if !ok {
		return nil, wiki.ErrPageNotFound
	}
	return links, nil
}

type fakePages map[string]wiki.Page

func (p fakePages) Parse(ctx context.Context, title string) (wiki.Page, error) {
	page, ok := p[title]
	if !ok {
		return wiki.Page{}, wiki.ErrPageNotFound
	}
	return page, nil
}

const (
	testAdminUser = "admin-user"
	testTimeLimit = 60
)

type testApp struct {
	srv    *Server
	engine *game.Engine
	gen    *fixedGenerator
	clock  *fakeClock
	ts     *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.CookieSecret = "test-secret"
	gen := &fixedGenerator{round: generator.Round{Start: "A", End: "C", Solution: []string{"A", "B", "C"}}}
	links := linkMap{
		"A": {"B", "D"},
		"B": {"C", "A"},
		"D": {"A"},
	}
	pages := fakePages{
		"A": {Title: "A", HTML: `<p>See <a href="/wiki/B" title="B">B</a> and <a href="https://example.com">out</a></p>`},
	}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	engine := game.New(game.NewMemoryStore(), gen, links, game.Options{
		TimeLimitMin:     cfg.TimeLimitMinSeconds,
		TimeLimitMax:     cfg.TimeLimitMaxSeconds,
		PointsForSolving: cfg.PointsForSolving,
	})
	engine.SetClock(clock.Now)
	srv := New(engine, pages, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Stop)
	return &testApp{srv: srv, engine: engine, gen: gen, clock: clock, ts: ts}
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// newClient returns a client that keeps cookies and does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, client *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(a.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// createParty creates a party through the HTTP form endpoint and returns its id.
func (a *testApp) createParty(t *testing.T, client *http.Client, name string) string {
	t.Helper()
	query := url.Values{"name": {name}, "time_limit_seconds": {"60"}}
	resp := a.get(t, client, "/api/create?"+query.Encode())
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 from create, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "/game/") {
		t.Fatalf("unexpected create redirect %q", location)
	}
	return strings.TrimPrefix(location, "/game/")
}

// seedParty creates a party for testAdminUser directly through the engine.
func (a *testApp) seedParty(t *testing.T) game.Party {
	t.Helper()
	party, _, err := a.engine.CreateParty(context.Background(), testAdminUser, "Ada", testTimeLimit)
	if err != nil {
		t.Fatalf("create party: %v", err)
	}
	return party
}

func (a *testApp) join(t *testing.T, partyID, userID, name string) game.Member {
	t.Helper()
	member, err := a.engine.JoinParty(context.Background(), userID, partyID, name)
	if err != nil {
		t.Fatalf("join party: %v", err)
	}
	return member
}

func (a *testApp) wsURL(partyID string) string {
	return "ws" + strings.TrimPrefix(a.ts.URL, "http") + wsPath(partyID)
}

func (a *testApp) cookieHeader(t *testing.T, userID string) http.Header {
	t.Helper()
	token, err := a.srv.identity.Issue(userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return http.Header{"Cookie": {userCookieName + "=" + token}}
}

// dialAs connects to the party socket as userID and consumes the
// leaderboard frame every connection receives first.
func (a *testApp) dialAs(t *testing.T, partyID, userID string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(a.wsURL(partyID), a.cookieHeader(t, userID))
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial websocket: %v (status %d)", err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	waitForFrame(t, conn, msgLeaderboardUpdate)
	return conn
}

type inbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (f inbound) kind() string {
	if f.Error != "" {
		return "error:" + f.Error
	}
	return f.Type
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) inbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var frame inbound
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode websocket message %s: %v", payload, err)
	}
	return frame
}

// waitForFrame reads until a frame of the given kind arrives. Errors are
// matched as "error:<code>".
func waitForFrame(t *testing.T, conn *websocket.Conn, kind string) inbound {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var seen []string
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("timed out waiting for %s; seen=%v", kind, seen)
		}
		frame := readFrame(t, conn, remaining)
		if frame.kind() == kind {
			return frame
		}
		seen = append(seen, frame.kind())
	}
}

func expectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no websocket message within %s, got %s", timeout, payload)
	}
	netErr, ok := err.(net.Error)
	if !ok || !netErr.Timeout() {
		t.Fatalf("expected websocket timeout, got %v", err)
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn, payload any) {
	t.Helper()
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write websocket message: %v", err)
	}
}

func decodeData[T any](t *testing.T, frame inbound) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(frame.Data, &out); err != nil {
		t.Fatalf("decode %s data: %v", frame.Type, err)
	}
	return out
}
