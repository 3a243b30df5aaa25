package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	respond "github.com/techresidents/indexsvc/internal/api/respond"
	"github.com/techresidents/indexsvc/internal/api/validate"
	"github.com/techresidents/indexsvc/internal/model"
	"github.com/techresidents/indexsvc/internal/queue"
)

// indexRequest is the wire shape of a POST /index or /index-all body.
type indexRequest struct {
	Context    string   `json:"context"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Keys       []string `json:"keys"`
	NotBefore  *int64   `json:"notBefore,omitempty"`
}

// IndexHandler validates and enqueues index/index-all requests. It is the
// only producer-facing surface of the job pipeline; it never executes a job
// itself.
type IndexHandler struct {
	queue            *queue.DatabaseJobQueue
	maxRetryAttempts int
	log              zerolog.Logger
}

func NewIndexHandler(q *queue.DatabaseJobQueue, maxRetryAttempts int, log zerolog.Logger) *IndexHandler {
	return &IndexHandler{queue: q, maxRetryAttempts: maxRetryAttempts, log: log}
}

// Index handles POST /index: enqueue an update job over the given keys.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

// IndexAll handles POST /index-all: enqueue an update job with empty keys
// ("all").
func (h *IndexHandler) IndexAll(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

func (h *IndexHandler) handle(w http.ResponseWriter, r *http.Request, indexAll bool) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}

	keys := req.Keys
	if indexAll {
		keys = nil
	}
	op := model.IndexOp{
		Action: model.ActionUpdate,
		Name:   req.Name,
		Type:   req.Type,
		Keys:   keys,
	}
	if err := validate.IndexOp(req.Context, op, indexAll); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	notBefore := time.Now().UTC()
	if req.NotBefore != nil {
		notBefore = time.Unix(*req.NotBefore, 0).UTC()
	}

	id, err := h.queue.Insert(r.Context(), req.Context, op, notBefore, h.maxRetryAttempts)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to enqueue index job")
		respond.WriteError(w, http.StatusServiceUnavailable, "could not enqueue index job")
		return
	}

	respond.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"id": id})
}
