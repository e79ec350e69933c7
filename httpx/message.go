// File: httpx/message.go
//
// HTTP/1.1 request/response codec over the buffered streams. Only
// Content-Length framing is supported; a missing Content-Length means
// an empty body.

package httpx

import (
	"strconv"
	"strings"

	"github.com/hxhue/coroutine-http-server/aio"
	"github.com/hxhue/coroutine-http-server/coro"
)

const crlf = "\r\n"

// Request is one HTTP/1.1 request.
type Request struct {
	Method  string
	Target  string
	Headers Headers
	Body    []byte
}

// Response is one HTTP/1.1 response.
type Response struct {
	Status  int
	Headers Headers
	Body    []byte
}

// ParseTarget parses the request target.
func (r *Request) ParseTarget() Target { return ParseTarget(r.Target) }

func isOWS(c byte) bool { return c == ' ' || c == '\t' }

func validFieldName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// readHeaderBody parses the header block and, when a Content-Length is
// present, exactly that many body bytes.
func readHeaderBody(co *coro.Coro, r *aio.Reader, h *Headers) ([]byte, error) {
	for {
		line, err := r.ReadLine(co, crlf)
		if err != nil {
			return nil, invalidf("premature EOF in headers: %v", err)
		}
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, invalidf("header line without ':': %q", line)
		}
		name := line[:colon]
		if !validFieldName(name) {
			return nil, invalidf("illegal header field name %q", name)
		}
		// The space after the colon is optional (RFC 7230 §3.2).
		value := line[colon+1:]
		for len(value) > 0 && isOWS(value[0]) {
			value = value[1:]
		}
		for len(value) > 0 && isOWS(value[len(value)-1]) {
			value = value[:len(value)-1]
		}
		if value == "" {
			return nil, invalidf("empty value for header field %q", name)
		}
		h.Set(name, value)
	}

	cl, ok := h.Get("Content-Length")
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return nil, invalidf("bad Content-Length %q", cl)
	}
	body, err := r.ReadFull(co, n)
	if err != nil {
		return nil, invalidf("body shorter than Content-Length %d: %v", n, err)
	}
	return body, nil
}

// writeHeaderBody serializes the header block and the body. Any
// caller-supplied Content-Length is dropped and recomputed from the
// body so the two can never disagree.
func writeHeaderBody(co *coro.Coro, w *aio.Writer, h *Headers, body []byte) error {
	var werr error
	h.Each(func(key, value string) {
		if werr != nil || foldKey(key) == "content-length" {
			return
		}
		werr = w.WriteString(co, key+": "+value+crlf)
	})
	if werr != nil {
		return werr
	}
	if len(body) > 0 {
		if err := w.WriteString(co, "Content-Length: "+strconv.Itoa(len(body))+crlf); err != nil {
			return err
		}
	}
	if err := w.WriteString(co, crlf); err != nil {
		return err
	}
	if len(body) > 0 {
		if err := w.Write(co, body); err != nil {
			return err
		}
	}
	return nil
}

// ReadRequest parses one request from the stream.
func ReadRequest(co *coro.Coro, r *aio.Reader) (*Request, error) {
	line, err := r.ReadLine(co, crlf)
	if err != nil {
		return nil, invalidf("premature EOF in request line: %v", err)
	}
	line = strings.TrimRight(line, " \t")
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[2] != "HTTP/1.1" {
		return nil, invalidf("malformed request line %q", line)
	}
	if ParseMethod(fields[0]) == MethodInvalid {
		return nil, invalidf("unknown method %q", fields[0])
	}
	req := &Request{Method: fields[0], Target: fields[1]}
	req.Body, err = readHeaderBody(co, r, &req.Headers)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// WriteTo serializes the request.
func (r *Request) WriteTo(co *coro.Coro, w *aio.Writer) error {
	if err := w.WriteString(co, r.Method+" "+r.Target+" HTTP/1.1"+crlf); err != nil {
		return err
	}
	return writeHeaderBody(co, w, &r.Headers, r.Body)
}

// ReadResponse parses one response from the stream.
func ReadResponse(co *coro.Coro, r *aio.Reader) (*Response, error) {
	line, err := r.ReadLine(co, crlf)
	if err != nil {
		return nil, invalidf("premature EOF in status line: %v", err)
	}
	const prefix = "HTTP/1.1 "
	if !strings.HasPrefix(line, prefix) {
		return nil, invalidf("malformed status line %q", line)
	}
	rest := line[len(prefix):]
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		rest = rest[:sp]
	}
	status, err := strconv.Atoi(rest)
	if err != nil {
		return nil, invalidf("malformed status code in %q", line)
	}
	resp := &Response{Status: status}
	resp.Body, err = readHeaderBody(co, r, &resp.Headers)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WriteTo serializes the response, resolving the reason phrase from the
// status table.
func (r *Response) WriteTo(co *coro.Coro, w *aio.Writer) error {
	line := "HTTP/1.1 " + strconv.Itoa(r.Status) + " " + StatusText(r.Status) + crlf
	if err := w.WriteString(co, line); err != nil {
		return err
	}
	return writeHeaderBody(co, w, &r.Headers, r.Body)
}
