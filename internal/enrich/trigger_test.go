package enrich

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_PostsTrigger(t *testing.T) {
	type received struct {
		body   map[string]any
		header string
	}
	done := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		done <- received{body: body, header: r.Header.Get("Content-Type")}
	}))
	defer srv.Close()

	NewDispatcher(srv.URL, 5*time.Second).Dispatch("batch-42")

	select {
	case got := <-done:
		assert.Equal(t, "batch-42", got.body["batch_id"])
		assert.Equal(t, true, got.body["auto_enrich"])
		assert.Equal(t, "application/json", got.header)
	case <-time.After(5 * time.Second):
		t.Fatal("trigger was never dispatched")
	}
}

func TestDispatch_EmptyURLIsNoop(t *testing.T) {
	// Must not panic or block; nothing to assert beyond returning.
	NewDispatcher("", time.Second).Dispatch("batch-42")
}

func TestDispatch_ServerErrorIsSwallowed(t *testing.T) {
	done := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		done <- struct{}{}
	}))
	defer srv.Close()

	NewDispatcher(srv.URL, 5*time.Second).Dispatch("batch-42")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("trigger was never dispatched")
	}
}
