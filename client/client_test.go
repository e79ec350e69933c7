package client_test

import (
	"net"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/hxhue/coroutine-http-server/client"
	"github.com/hxhue/coroutine-http-server/coro"
	"github.com/hxhue/coroutine-http-server/httpx"
	"github.com/hxhue/coroutine-http-server/server"
	"github.com/hxhue/coroutine-http-server/transport"
)

func TestGetAgainstServer(t *testing.T) {
	loop, err := coro.NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	t.Cleanup(func() { _ = loop.Close() })

	router := httpx.NewRouter()
	err = router.Route(httpx.MethodGet, "/hello", func(co *coro.Coro, req *httpx.Request) (*httpx.Response, error) {
		resp := &httpx.Response{Status: 200, Body: []byte("hi")}
		resp.Headers.Set("Content-Type", "text/plain")
		return resp, nil
	})
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	lf, err := transport.Listen(transport.Addr{IP: net.IPv4(127, 0, 0, 1), Port: 0}, 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { _ = lf.Close() })
	port, err := transport.ListenPort(lf)
	if err != nil {
		t.Fatalf("ListenPort: %v", err)
	}
	addr := transport.Addr{IP: net.IPv4(127, 0, 0, 1), Port: port}

	quiet := log.New()
	quiet.SetLevel(log.PanicLevel)
	accept := server.New(loop, router, server.WithLogger(quiet)).AcceptTask(lf)
	loop.Spawn(accept)

	root := coro.New(loop, func(co *coro.Coro) (coro.Void, error) {
		defer accept.Drop(co)
		resp, err := client.Get(co, addr, "/hello")
		if err != nil {
			return coro.Void{}, err
		}
		if resp.Status != 200 || string(resp.Body) != "hi" {
			t.Errorf("response = %d %q", resp.Status, resp.Body)
		}
		return coro.Void{}, nil
	})
	if _, err := coro.Run(loop, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
