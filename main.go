// File: main.go
//
// Demo HTTP server: scans ports 9000-9200 for a free one and serves a
// handful of routes until killed.

package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hxhue/coroutine-http-server/aio"
	"github.com/hxhue/coroutine-http-server/coro"
	"github.com/hxhue/coroutine-http-server/httpx"
	"github.com/hxhue/coroutine-http-server/server"
	"github.com/hxhue/coroutine-http-server/transport"
)

func buildRouter() (*httpx.Router, error) {
	r := httpx.NewRouter()

	routes := []struct {
		path string
		h    httpx.Handler
	}{
		{"/", handleRoot},
		{"/home", handleHome},
		{"/sleep", handleSleep},
		{"/repeat", handleRepeat},
	}
	for _, rt := range routes {
		if err := r.Route(httpx.MethodGet, rt.path, rt.h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func handleRoot(co *coro.Coro, req *httpx.Request) (*httpx.Response, error) {
	resp := &httpx.Response{Status: 302}
	resp.Headers.Set("Location", "/home")
	return resp, nil
}

func handleHome(co *coro.Coro, req *httpx.Request) (*httpx.Response, error) {
	resp := &httpx.Response{Status: 200, Body: []byte("<h1>Hello, World!</h1>")}
	resp.Headers.Set("Content-Type", "text/html")
	return resp, nil
}

func badRequest(msg string) *httpx.Response {
	resp := &httpx.Response{Status: 400, Body: []byte(msg)}
	resp.Headers.Set("Content-Type", "text/plain")
	return resp
}

func handleSleep(co *coro.Coro, req *httpx.Request) (*httpx.Response, error) {
	ms, err := strconv.ParseFloat(req.ParseTarget().Params["ms"], 64)
	if err != nil || ms < 0 {
		return badRequest("bad or missing ms parameter"), nil
	}
	if err := coro.Sleep(co, time.Duration(ms*float64(time.Millisecond))); err != nil {
		return nil, err
	}
	resp := &httpx.Response{Status: 200, Body: []byte(fmt.Sprintf("slept %g ms", ms))}
	resp.Headers.Set("Content-Type", "text/plain")
	return resp, nil
}

func handleRepeat(co *coro.Coro, req *httpx.Request) (*httpx.Response, error) {
	count, err := strconv.Atoi(req.ParseTarget().Params["count"])
	if err != nil || count < 0 {
		return badRequest("bad or missing count parameter"), nil
	}
	resp := &httpx.Response{Status: 200, Body: []byte(strings.Repeat("@", count))}
	resp.Headers.Set("Content-Type", "text/plain")
	return resp, nil
}

// bindFreePort scans the configured port range and returns the first
// socket that binds.
func bindFreePort(min, max int) (*aio.File, int, error) {
	for port := min; port <= max; port++ {
		l, err := transport.Listen(transport.Addr{IP: net.IPv4zero, Port: port}, 0)
		if err == nil {
			return l, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no free port in range %d-%d", min, max)
}

func main() {
	confPath := ""
	if len(os.Args) > 1 {
		confPath = os.Args[1]
	}
	conf, err := loadConfig(confPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if err := setupLogging(conf.Log); err != nil {
		log.WithError(err).Error("Failed to set up logging")
		os.Exit(1)
	}

	router, err := buildRouter()
	if err != nil {
		log.WithError(err).Error("Failed to build routes")
		os.Exit(1)
	}

	loop, err := coro.NewLoop()
	if err != nil {
		log.WithError(err).Error("Failed to create event loop")
		os.Exit(1)
	}
	defer loop.Close()

	listener, port, err := bindFreePort(conf.Server.MinPort, conf.Server.MaxPort)
	if err != nil {
		log.WithError(err).Error("Failed to bind")
		os.Exit(1)
	}
	defer listener.Close()

	fmt.Printf("Server is listening on port %d...\n", port)

	srv := server.New(loop, router, server.WithBufferSize(conf.Server.BufferSize))
	if err := srv.Serve(listener); err != nil {
		log.WithError(err).Error("Server failed")
		os.Exit(1)
	}
}
