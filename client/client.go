// File: client/client.go
//
// Minimal HTTP/1.1 client over the coroutine runtime. One request per
// connection, matching the server's one-shot connection model.

package client

import (
	"github.com/hxhue/coroutine-http-server/aio"
	"github.com/hxhue/coroutine-http-server/coro"
	"github.com/hxhue/coroutine-http-server/httpx"
	"github.com/hxhue/coroutine-http-server/transport"
)

// Do connects to addr, sends req, and reads the response. The
// connection is closed before Do returns.
func Do(co *coro.Coro, addr transport.Addr, req *httpx.Request) (*httpx.Response, error) {
	conn, err := transport.Dial(co, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	w := aio.NewWriter(conn)
	if err := req.WriteTo(co, w); err != nil {
		return nil, err
	}
	if err := w.Flush(co); err != nil {
		return nil, err
	}
	return httpx.ReadResponse(co, aio.NewReader(conn))
}

// Get issues a GET for target against addr.
func Get(co *coro.Coro, addr transport.Addr, target string) (*httpx.Response, error) {
	req := &httpx.Request{Method: string(httpx.MethodGet), Target: target}
	req.Headers.Set("Host", addr.String())
	return Do(co, addr, req)
}
