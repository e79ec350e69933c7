package httpx

import (
	"errors"
	"testing"

	"github.com/hxhue/coroutine-http-server/coro"
)

// markerHandler returns a handler distinguishable by its status code.
func markerHandler(status int) Handler {
	return func(co *coro.Coro, req *Request) (*Response, error) {
		return &Response{Status: status}, nil
	}
}

func status(t *testing.T, h Handler) int {
	t.Helper()
	if h == nil {
		return -1
	}
	resp, err := h(nil, nil)
	if err != nil {
		t.Fatalf("marker handler: %v", err)
	}
	return resp.Status
}

func TestExactRoute(t *testing.T) {
	r := NewRouter()
	if err := r.Route(MethodGet, "/a", markerHandler(201)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/a")); got != 201 {
		t.Errorf("FindRoute(/a) = %d, want 201", got)
	}
	if h := r.FindRoute(MethodPost, "/a"); h != nil {
		t.Error("POST /a should not match a GET route")
	}
	if h := r.FindRoute(MethodGet, "/b"); h != nil {
		t.Error("/b should not match")
	}
}

func TestExactBeatsPrefix(t *testing.T) {
	r := NewRouter()
	if err := r.Route(MethodGet, "/a", markerHandler(201)); err != nil {
		t.Fatal(err)
	}
	if err := r.RoutePrefix(MethodAny, "/", markerHandler(202)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/a")); got != 201 {
		t.Errorf("GET /a = %d, want the exact handler", got)
	}
	if got := status(t, r.FindRoute(MethodPost, "/a/x")); got != 202 {
		t.Errorf("POST /a/x = %d, want the prefix handler", got)
	}
}

func TestTrailingSlashFallback(t *testing.T) {
	r := NewRouter()
	if err := r.Route(MethodGet, "/home/", markerHandler(200)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/home")); got != 200 {
		t.Errorf("GET /home = %d, want the /home/ handler", got)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	r := NewRouter()
	if err := r.RoutePrefix(MethodAny, "/api", markerHandler(210)); err != nil {
		t.Fatal(err)
	}
	if err := r.RoutePrefix(MethodAny, "/api/v1", markerHandler(211)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/api/v1/users")); got != 211 {
		t.Errorf("GET /api/v1/users = %d, want the deeper prefix", got)
	}
	if got := status(t, r.FindRoute(MethodGet, "/api/other")); got != 210 {
		t.Errorf("GET /api/other = %d, want the shallower prefix", got)
	}
	if h := r.FindRoute(MethodGet, "/unrelated"); h != nil {
		t.Error("/unrelated should not match")
	}
}

func TestMethodBeatsAnyAtSameNode(t *testing.T) {
	r := NewRouter()
	if err := r.RoutePrefix(MethodAny, "/x", markerHandler(220)); err != nil {
		t.Fatal(err)
	}
	if err := r.RoutePrefix(MethodGet, "/x", markerHandler(221)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/x/y")); got != 221 {
		t.Errorf("GET = %d, want the method-specific handler", got)
	}
	if got := status(t, r.FindRoute(MethodPost, "/x/y")); got != 220 {
		t.Errorf("POST = %d, want the wildcard handler", got)
	}
}

func TestPathNormalization(t *testing.T) {
	r := NewRouter()
	if err := r.Route(MethodGet, "//a/b//", markerHandler(230)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/a/b/")); got != 230 {
		t.Errorf("collapsed path lookup = %d, want 230", got)
	}
	if got := status(t, r.FindRoute(MethodGet, "/a//b")); got != 230 {
		t.Errorf("lookup with doubled slash = %d, want 230", got)
	}
}

func TestQueryIgnoredInLookup(t *testing.T) {
	r := NewRouter()
	if err := r.Route(MethodGet, "/sleep", markerHandler(240)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRoute(MethodGet, "/sleep?ms=100")); got != 240 {
		t.Errorf("lookup with query = %d, want 240", got)
	}
}

func TestRegistrationErrors(t *testing.T) {
	r := NewRouter()
	h := markerHandler(200)
	if err := r.Route(MethodInvalid, "/a", h); !errors.Is(err, coro.ErrInvalidArgument) {
		t.Errorf("invalid method: %v", err)
	}
	if err := r.Route(MethodGet, "relative", h); !errors.Is(err, coro.ErrInvalidArgument) {
		t.Errorf("relative path: %v", err)
	}
	if err := r.Route(MethodGet, "/a", nil); !errors.Is(err, coro.ErrInvalidArgument) {
		t.Errorf("nil handler: %v", err)
	}
	if err := r.RoutePrefix(MethodGet, "/a?x=1", h); !errors.Is(err, coro.ErrInvalidArgument) {
		t.Errorf("prefix with params: %v", err)
	}
	if err := r.RoutePrefix(MethodInvalid, "/a", h); !errors.Is(err, coro.ErrInvalidArgument) {
		t.Errorf("prefix invalid method: %v", err)
	}
}

func TestFindRouteStringParsesMethod(t *testing.T) {
	r := NewRouter()
	if err := r.Route(MethodGet, "/a", markerHandler(250)); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r.FindRouteString("get", "/a")); got != 250 {
		t.Errorf("lower-case method lookup = %d, want 250", got)
	}
	if h := r.FindRouteString("BREW", "/a"); h != nil {
		t.Error("unknown method token should not match")
	}
}
