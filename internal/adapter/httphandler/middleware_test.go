package httphandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowJSON(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := AllowJSON(next)

	for name, tc := range map[string]struct {
		body        string
		contentType string
		code        int
	}{
		"NoBody":      {"", "", http.StatusTeapot},
		"JSON":        {"{}", "application/json", http.StatusTeapot},
		"JSONCharset": {"{}", "application/json; charset=utf-8", http.StatusTeapot},
		"Text":        {"{}", "text/plain", http.StatusUnsupportedMediaType},
		"Missing":     {"{}", "", http.StatusUnsupportedMediaType},
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			if tc.contentType != "" {
				r.Header.Set("Content-Type", tc.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestLogRequests(t *testing.T) {
	h := LogRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
