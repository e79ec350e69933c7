// File: httpx/router.go
//
// Request routing: an exact-match table plus a prefix trie over path
// segments. Exact beats prefix; a method-specific entry beats the
// wildcard at the same node; the deepest matching node wins.

package httpx

import (
	"fmt"
	"strings"

	"github.com/hxhue/coroutine-http-server/coro"
)

// Handler turns a request into a response. It runs inside the
// connection's task and may suspend freely.
type Handler func(co *coro.Coro, req *Request) (*Response, error)

type trieNode struct {
	children map[string]*trieNode
	handlers map[Method]Handler
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

func (n *trieNode) handlerFor(m Method) Handler {
	if h, ok := n.handlers[m]; ok {
		return h
	}
	return n.handlers[MethodAny]
}

// Router dispatches requests by method and path.
type Router struct {
	exact map[string]map[Method]Handler
	root  *trieNode
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		exact: make(map[string]map[Method]Handler),
		root:  newTrieNode(),
	}
}

// normalizePath collapses consecutive slashes: //a/b// -> /a/b/.
func normalizePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	var last byte
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' && last == '/' {
			continue
		}
		b.WriteByte(c)
		last = c
	}
	return b.String()
}

func stripQuery(p string) string {
	if q := strings.IndexByte(p, '?'); q >= 0 {
		return p[:q]
	}
	return p
}

// Route registers an exact-match handler. The path is normalized before
// storage; a query part is ignored. MethodAny registers the fallback
// entry for the path.
func (r *Router) Route(method Method, path string, h Handler) error {
	if !method.Valid(true) {
		return fmt.Errorf("%w: bad route method %q", coro.ErrInvalidArgument, string(method))
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: route path %q does not start with '/'", coro.ErrInvalidArgument, path)
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler", coro.ErrInvalidArgument)
	}
	key := normalizePath(stripQuery(path))
	mm := r.exact[key]
	if mm == nil {
		mm = make(map[Method]Handler)
		r.exact[key] = mm
	}
	mm[method] = h
	return nil
}

// RoutePrefix registers a longest-prefix handler. The path must be an
// origin-form path without query parameters; its segments populate the
// trie.
func (r *Router) RoutePrefix(method Method, path string, h Handler) error {
	if !method.Valid(true) {
		return fmt.Errorf("%w: bad route method %q", coro.ErrInvalidArgument, string(method))
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: route path %q does not start with '/'", coro.ErrInvalidArgument, path)
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler", coro.ErrInvalidArgument)
	}
	t := ParseTarget(path)
	if t.Kind != TargetOrigin {
		return fmt.Errorf("%w: prefix route %q is not an origin-form path", coro.ErrInvalidArgument, path)
	}
	if len(t.Params) != 0 {
		return fmt.Errorf("%w: prefix route %q must not carry query parameters", coro.ErrInvalidArgument, path)
	}
	cur := r.root
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		child := cur.children[seg]
		if child == nil {
			child = newTrieNode()
			cur.children[seg] = child
		}
		cur = child
	}
	if cur.handlers == nil {
		cur.handlers = make(map[Method]Handler)
	}
	cur.handlers[method] = h
	return nil
}

func (r *Router) findExact(method Method, path string) Handler {
	mm := r.exact[path]
	if mm == nil {
		return nil
	}
	if h, ok := mm[method]; ok {
		return h
	}
	return mm[MethodAny]
}

// FindRoute resolves a handler for a concrete method and request
// target. Lookup order: exact match on the normalized path, exact match
// with a trailing slash appended, then the deepest trie node on the
// path that carries a handler for the method or the wildcard. Nil when
// nothing matches.
func (r *Router) FindRoute(method Method, uri string) Handler {
	if !method.Valid(false) || !strings.HasPrefix(uri, "/") {
		return nil
	}
	path := normalizePath(stripQuery(uri))

	if h := r.findExact(method, path); h != nil {
		return h
	}
	if !strings.HasSuffix(path, "/") {
		if h := r.findExact(method, path+"/"); h != nil {
			return h
		}
	}

	cur := r.root
	best := cur.handlerFor(method)
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		cur = cur.children[seg]
		if cur == nil {
			break
		}
		if h := cur.handlerFor(method); h != nil {
			best = h
		}
	}
	return best
}

// FindRouteString is FindRoute with a raw method token.
func (r *Router) FindRouteString(method, uri string) Handler {
	return r.FindRoute(ParseMethod(method), uri)
}
