package middlewares_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geotours/tourhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		contentType    string
		wantStatusCode int
	}{
		{
			name:           "json_post_allowed",
			method:         http.MethodPost,
			body:           `{}`,
			contentType:    "application/json",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "charset_suffix_allowed",
			method:         http.MethodPatch,
			body:           `{}`,
			contentType:    "application/json; charset=utf-8",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "wrong_content_type_rejected",
			method:         http.MethodPost,
			body:           `{}`,
			contentType:    "text/plain",
			wantStatusCode: http.StatusUnsupportedMediaType,
		},
		{
			name:           "missing_content_type_rejected",
			method:         http.MethodPost,
			body:           `{}`,
			wantStatusCode: http.StatusUnsupportedMediaType,
		},
		{
			name:           "bodiless_patch_exempt",
			method:         http.MethodPatch,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "get_never_checked",
			method:         http.MethodGet,
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middlewares.RequireJSON())
			r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			var req *http.Request

			if tt.body != "" {
				req = httptest.NewRequest(tt.method, "/x", bytes.NewBufferString(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, "/x", nil)
			}

			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
