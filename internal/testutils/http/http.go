package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

type RequestOption func(req *http.Request) *http.Request

func WithContext(ctx context.Context) RequestOption {
	return func(req *http.Request) *http.Request {
		return req.WithContext(ctx)
	}
}

func WithHeader(key string, value string, values ...string) RequestOption {
	return func(req *http.Request) *http.Request {
		req.Header.Add(key, value)
		for _, v := range values {
			req.Header.Add(key, v)
		}
		return req
	}
}

// = WithHeader("Content-Type", ctyp)
func ContentType(ctyp string) RequestOption {
	return WithHeader("Content-Type", ctyp)
}

func Get(e *echo.Echo, target string, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return newContext(e, http.MethodGet, target, nil, reqopts...)
}

func Post(e *echo.Echo, target string, data io.Reader, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return newContext(e, http.MethodPost, target, data, reqopts...)
}

func newContext(e *echo.Echo, method string, target string, data io.Reader, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, data)
	for _, opt := range reqopts {
		req = opt(req)
	}
	resp := httptest.NewRecorder()

	ctx := e.NewContext(req, resp)
	return ctx, resp
}

// Platform is a fake platform API replying canned JSON bodies.
//
// Requests are recorded, and counted per "METHOD /request/uri?query".
type Platform struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   map[string]string
	gates    map[string]chan struct{}
	requests []*http.Request
	hits     map[string]int
}

// NewPlatform starts a Platform replying bodies[METHOD + " " + path].
// Other requests get 404 with a reason.
//
// The server is closed when the test ends.
func NewPlatform(t *testing.T, bodies map[string]string) *Platform {
	t.Helper()
	p := &Platform{bodies: bodies, gates: map[string]chan struct{}{}, hits: map[string]int{}}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

// ApiRoot is the URL where the API is served.
func (p *Platform) ApiRoot() string {
	return p.Server.URL + "/api"
}

// Hold makes responses for route ("METHOD /path") wait until the returned func is called.
func (p *Platform) Hold(route string) (release func()) {
	gate := make(chan struct{})
	p.mu.Lock()
	p.gates[route] = gate
	p.mu.Unlock()

	once := sync.Once{}
	return func() { once.Do(func() { close(gate) }) }
}

// Set replaces the body of route.
func (p *Platform) Set(route string, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies[route] = body
}

func (p *Platform) serve(w http.ResponseWriter, req *http.Request) {
	route := req.Method + " " + req.URL.Path

	p.mu.Lock()
	p.requests = append(p.requests, req.Clone(context.Background()))
	p.hits[req.Method+" "+req.URL.RequestURI()] += 1
	body, ok := p.bodies[route]
	gate := p.gates[route]
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"reason": "no such endpoint"}`))
		return
	}
	w.Write([]byte(body))
}

// Count is the number of requests to "METHOD /request/uri?query".
func (p *Platform) Count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[key]
}

// Last is the latest request.
func (p *Platform) Last() *http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}
