package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentEncodingGzip = "gzip"

func runCompression(t *testing.T, h http.HandlerFunc, method, acceptEncoding string, level int) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	Compression(CompressionConfig{Level: level})(h).ServeHTTP(rec, req)
	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

func TestCompression(t *testing.T) {
	content := strings.Repeat("Find a pharmacy near you. ", 500)

	tests := []struct {
		name           string
		acceptEncoding string
		level          int
		expectGzip     bool
	}{
		{"client accepts gzip", "gzip, deflate", 6, true},
		{"client does not accept gzip", "deflate", 6, false},
		{"no accept-encoding header", "", 6, false},
		{"fastest level", "gzip", 1, true},
		{"best level", "gzip", 9, true},
		{"invalid level uses default", "gzip", 42, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := runCompression(t, htmlHandler(content), http.MethodGet, tt.acceptEncoding, tt.level)

			if !tt.expectGzip {
				assert.Empty(t, resp.Header.Get("Content-Encoding"))
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, content, string(body))
				return
			}

			assert.Equal(t, contentEncodingGzip, resp.Header.Get("Content-Encoding"))
			assert.Empty(t, resp.Header.Get("Content-Length"))
			assert.Equal(t, "Accept-Encoding", resp.Header.Get("Vary"))
			gr, err := gzip.NewReader(resp.Body)
			require.NoError(t, err)
			defer gr.Close()
			body, err := io.ReadAll(gr)
			require.NoError(t, err)
			assert.Equal(t, content, string(body))
		})
	}
}

func TestCompressionWithStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		writeBody  bool
		expectGzip bool
	}{
		{"200 with HTML", http.StatusOK, true, true},
		{"404 page", http.StatusNotFound, true, true},
		{"204 No Content", http.StatusNoContent, false, false},
		{"304 Not Modified", http.StatusNotModified, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.status)
				if tt.writeBody {
					_, _ = w.Write([]byte("content"))
				}
			}
			resp := runCompression(t, h, http.MethodGet, "gzip", 6)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.expectGzip, resp.Header.Get("Content-Encoding") == contentEncodingGzip)
		})
	}
}

func TestCompressionContentTypeFiltering(t *testing.T) {
	tests := []struct {
		contentType string
		expectGzip  bool
	}{
		{"text/html", true},
		{"text/css", true},
		{"application/json", true},
		{"image/svg+xml", true},
		{"TEXT/HTML; charset=utf-8", true},
		{"image/png", false},
		{"application/zip", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			h := func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte("content"))
			}
			resp := runCompression(t, h, http.MethodGet, "gzip", 6)
			assert.Equal(t, tt.expectGzip, resp.Header.Get("Content-Encoding") == contentEncodingGzip)
		})
	}
}

func TestCompressionDetectsContentType(t *testing.T) {
	h := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<!doctype html><html><body>hi</body></html>"))
	}
	resp := runCompression(t, h, http.MethodGet, "gzip", 6)
	assert.Equal(t, contentEncodingGzip, resp.Header.Get("Content-Encoding"))
}

func TestCompressionHEADRequest(t *testing.T) {
	resp := runCompression(t, htmlHandler(""), http.MethodHead, "gzip", 6)
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
}

func TestCompressionAcceptEncodingQValue(t *testing.T) {
	tests := []struct {
		acceptEncoding string
		expectGzip     bool
	}{
		{"gzip;q=1", true},
		{"gzip;q=0.5", true},
		{"gzip;q=0", false},
		{"gzip; q=0.0", false},
		{"deflate, gzip", true},
		{"GZIP", true},
		{"x-gzip", false},
		{"deflate", false},
	}
	for _, tt := range tests {
		t.Run(tt.acceptEncoding, func(t *testing.T) {
			assert.Equal(t, tt.expectGzip, acceptsGzip(tt.acceptEncoding))
		})
	}
}

func TestCompressionPreExistingContentEncoding(t *testing.T) {
	h := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "br")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("content"))
	}
	resp := runCompression(t, h, http.MethodGet, "gzip", 6)
	assert.Equal(t, "br", resp.Header.Get("Content-Encoding"))
}
