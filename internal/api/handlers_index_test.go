package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/techresidents/indexsvc/internal/queue"
)

func TestIndexHandler_RejectsEmptyContext(t *testing.T) {
	h := NewIndexHandler(&queue.DatabaseJobQueue{}, 3, zerolog.Nop())

	body, _ := json.Marshal(map[string]interface{}{
		"context": "",
		"name":    "users",
		"type":    "user",
		"keys":    []string{"1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Index(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty context, got %d", w.Code)
	}
}

func TestIndexHandler_RejectsEmptyKeysWhenNotIndexAll(t *testing.T) {
	h := NewIndexHandler(&queue.DatabaseJobQueue{}, 3, zerolog.Nop())

	body, _ := json.Marshal(map[string]interface{}{
		"context": "t1",
		"name":    "users",
		"type":    "user",
		"keys":    []string{},
	})
	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Index(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty keys, got %d", w.Code)
	}
}

func TestIndexHandler_RejectsMalformedBody(t *testing.T) {
	h := NewIndexHandler(&queue.DatabaseJobQueue{}, 3, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()

	h.Index(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}
