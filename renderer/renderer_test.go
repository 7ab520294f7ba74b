package renderer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRendererRender(t *testing.T) {
	var got renderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("%PDF-1.7 rendered"))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, "test-key")
	doc, err := r.Render(42, "Ahmed Ali", map[string]string{"course": "Go"})
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.7 rendered"), doc)
	assert.Equal(t, uint(42), got.TemplateID)
	assert.Equal(t, "Ahmed Ali", got.StudentName)
	assert.Equal(t, "Go", got.CustomFields["course"])
}

func TestHTTPRendererErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not found", http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, "")
	_, err := r.Render(1, "Sara", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template not found")
}
