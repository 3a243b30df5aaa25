package model

import (
	"encoding/json"
	"fmt"
)

// IndexAction identifies the kind of indexing operation a job describes.
type IndexAction string

const (
	ActionCreate IndexAction = "CREATE"
	ActionUpdate IndexAction = "UPDATE"
	ActionDelete IndexAction = "DELETE"
)

func (a IndexAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// IndexOp is the decoded form of an IndexJob's data payload: the action to
// perform, the index/document-type it targets, and the keys it applies to.
// An empty Keys slice means "all keys" for Create/Update; Delete always
// requires an explicit key list (see DESIGN.md open-question decisions).
type IndexOp struct {
	Action IndexAction `json:"action"`
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Keys   []string    `json:"keys"`
}

// Encode renders the canonical job payload described in spec §6.
func (op IndexOp) Encode() ([]byte, error) {
	if op.Keys == nil {
		op.Keys = []string{}
	}
	return json.Marshal(op)
}

// DecodeIndexOp parses a job's data payload into an IndexOp. Decode failure
// is permanent for the job (model.ErrDecode); the caller still schedules a
// retry per normal accounting since a backend bug or bad deploy could
// self-correct.
func DecodeIndexOp(data []byte) (IndexOp, error) {
	var op IndexOp
	if err := json.Unmarshal(data, &op); err != nil {
		return IndexOp{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !op.Action.Valid() {
		return IndexOp{}, fmt.Errorf("%w: unknown action %q", ErrDecode, op.Action)
	}
	if op.Name == "" || op.Type == "" {
		return IndexOp{}, fmt.Errorf("%w: missing name/type", ErrDecode)
	}
	if op.Keys == nil {
		op.Keys = []string{}
	}
	return op, nil
}

// AllKeys reports whether this op targets every entity (empty key list on a
// Create/Update op).
func (op IndexOp) AllKeys() bool {
	return len(op.Keys) == 0
}
