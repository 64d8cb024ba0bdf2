package middleware_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

func newTestAPI() huma.API {
	return humachi.New(chi.NewMux(), huma.DefaultConfig("Test", "1.0.0"))
}

// mockHumaContext implements huma.Context for testing.
type mockHumaContext struct {
	headers         map[string]string
	responseHeaders map[string]string
	remoteAddr      string
	path            string
	written         []byte
	statusCode      int
	method          string
}

func newMockHumaContext() *mockHumaContext {
	return &mockHumaContext{
		headers:         make(map[string]string),
		responseHeaders: make(map[string]string),
		method:          "GET",
		path:            "/q/1",
	}
}

func (m *mockHumaContext) Operation() *huma.Operation              { return nil }
func (m *mockHumaContext) Context() context.Context                { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState               { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion              { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                          { return m.method }
func (m *mockHumaContext) Host() string                            { return "localhost:8888" }
func (m *mockHumaContext) RemoteAddr() string                      { return m.remoteAddr }
func (m *mockHumaContext) URL() url.URL                            { return url.URL{Path: m.path} }
func (m *mockHumaContext) Param(_ string) string                   { return "" }
func (m *mockHumaContext) Query(_ string) string                   { return "" }
func (m *mockHumaContext) Header(name string) string               { return m.headers[name] }
func (m *mockHumaContext) EachHeader(_ func(name, value string))   {}
func (m *mockHumaContext) BodyReader() io.Reader                   { return nil }
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error       { return nil }
func (m *mockHumaContext) SetStatus(code int)                      { m.statusCode = code }
func (m *mockHumaContext) Status() int                             { return m.statusCode }
func (m *mockHumaContext) AppendHeader(name, value string)         { m.responseHeaders[name] = value }
func (m *mockHumaContext) SetHeader(name, value string)            { m.responseHeaders[name] = value }
func (m *mockHumaContext) BodyWriter() io.Writer                   { return &mockBodyWriter{ctx: m} }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}

type mockBodyWriter struct {
	ctx *mockHumaContext
}

func (w *mockBodyWriter) Write(p []byte) (n int, err error) {
	w.ctx.written = append(w.ctx.written, p...)

	return len(p), nil
}
