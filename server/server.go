// File: server/server.go
//
// HTTP connection server: an accept-loop task that spawns one detached
// task per connection. Connections are one-shot: parse a request, run
// the routed handler, write the response, close.
//
// Per-connection failures never reach the accept loop. They are caught
// at the top of the connection task, logged, and the connection is
// dropped; the OnHandlerError hook lets a deployment turn handler
// failures into 500 responses instead.

package server

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/hxhue/coroutine-http-server/aio"
	"github.com/hxhue/coroutine-http-server/coro"
	"github.com/hxhue/coroutine-http-server/httpx"
	"github.com/hxhue/coroutine-http-server/pool"
	"github.com/hxhue/coroutine-http-server/transport"
)

// Server serves HTTP/1.1 connections accepted from a listening socket.
type Server struct {
	loop    *coro.Loop
	router  *httpx.Router
	logger  *log.Logger
	bufPool *pool.BytePool

	// OnHandlerError may turn a handler failure into a response (for
	// instance a 500). When nil, or when it returns nil, the connection
	// is dropped without a response, and the failure is only logged.
	OnHandlerError func(req *httpx.Request, err error) *httpx.Response
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBufferSize sets the per-connection stream buffer size.
func WithBufferSize(size int) Option {
	return func(s *Server) { s.bufPool = pool.NewBytePool(size) }
}

// WithErrorHook installs the handler-failure hook.
func WithErrorHook(hook func(*httpx.Request, error) *httpx.Response) Option {
	return func(s *Server) { s.OnHandlerError = hook }
}

// New creates a server over the given loop and router.
func New(loop *coro.Loop, router *httpx.Router, opts ...Option) *Server {
	s := &Server{
		loop:    loop,
		router:  router,
		logger:  log.StandardLogger(),
		bufPool: pool.NewBytePool(aio.DefaultBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AcceptTask returns the root task running the accept loop on l. Every
// accepted connection is served by its own detached task.
func (s *Server) AcceptTask(l *aio.File) *coro.Task[coro.Void] {
	return coro.New(s.loop, func(co *coro.Coro) (coro.Void, error) {
		for {
			conn, peer, err := transport.Accept(co, l)
			if err != nil {
				return coro.Void{}, err
			}
			s.logger.WithFields(log.Fields{
				"peer": peer.String(),
				"fd":   conn.Fd(),
			}).Debug("accepted connection")
			s.loop.Spawn(s.connTask(conn, peer))
		}
	})
}

// Serve runs the accept loop until it fails or the loop goes idle.
func (s *Server) Serve(l *aio.File) error {
	_, err := coro.Run(s.loop, s.AcceptTask(l))
	return err
}

func (s *Server) connTask(conn *aio.File, peer transport.Addr) *coro.Task[coro.Void] {
	return coro.New(s.loop, func(co *coro.Coro) (coro.Void, error) {
		defer conn.Close()

		rbuf := s.bufPool.Get()
		wbuf := s.bufPool.Get()
		defer s.bufPool.Put(rbuf)
		defer s.bufPool.Put(wbuf)

		r := aio.NewReaderBuffer(conn, rbuf)
		w := aio.NewWriterBuffer(conn, wbuf)

		if err := s.serveOne(co, r, w); err != nil {
			s.logger.WithFields(log.Fields{
				"peer": peer.String(),
			}).WithError(err).Debug("connection dropped")
		}
		// The connection task never propagates errors further: a broken
		// peer must not take the accept loop down.
		return coro.Void{}, nil
	})
}

func (s *Server) serveOne(co *coro.Coro, r *aio.Reader, w *aio.Writer) error {
	req, err := httpx.ReadRequest(co, r)
	if err != nil {
		return err
	}

	var resp *httpx.Response
	if h := s.router.FindRouteString(req.Method, req.Target); h == nil {
		s.logger.WithFields(log.Fields{
			"method": req.Method,
			"target": req.Target,
		}).WithError(httpx.ErrNotFound).Debug("no route")
		resp = NotFound()
	} else {
		resp, err = s.invoke(co, h, req)
		if err == nil && resp == nil {
			err = fmt.Errorf("handler returned no response")
		}
		if err != nil {
			resp = nil
			if s.OnHandlerError != nil {
				resp = s.OnHandlerError(req, err)
			}
			if resp == nil {
				return fmt.Errorf("%s %s: %w", req.Method, req.Target, err)
			}
		}
	}

	if err := resp.WriteTo(co, w); err != nil {
		return err
	}
	return w.Flush(co)
}

// invoke runs a handler, converting its panics into errors so one bad
// route cannot tear the loop down. Frame unwind signals pass through.
func (s *Server) invoke(co *coro.Coro, h httpx.Handler, req *httpx.Request) (resp *httpx.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			if coro.IsUnwind(r) {
				panic(r)
			}
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(co, req)
}

// NotFound is the response for requests no route matches.
func NotFound() *httpx.Response {
	resp := &httpx.Response{Status: 404, Body: []byte(`{"message":"Cannot find a route."}`)}
	resp.Headers.Set("Content-Type", "application/json")
	return resp
}
