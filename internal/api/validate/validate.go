// Package validate holds the shape checks the RPC surface applies to an
// index/indexAll request before a job row is inserted.
package validate

import (
	"fmt"

	"github.com/techresidents/indexsvc/internal/model"
)

// NonEmpty rejects an empty string for the named field.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// IndexOp validates a caller-supplied op against spec §6: empty context,
// unknown action, empty name, empty type, or empty keys when indexAll is
// false each produce a validation error and must prevent a row insert.
func IndexOp(context string, op model.IndexOp, indexAll bool) error {
	if err := NonEmpty("context", context); err != nil {
		return err
	}
	if !op.Action.Valid() {
		return fmt.Errorf("unknown action %q", op.Action)
	}
	if err := NonEmpty("name", op.Name); err != nil {
		return err
	}
	if err := NonEmpty("type", op.Type); err != nil {
		return err
	}
	if !indexAll && len(op.Keys) == 0 {
		return fmt.Errorf("keys is required unless indexing all")
	}
	if op.Action == model.ActionDelete && len(op.Keys) == 0 {
		return fmt.Errorf("keys is required for delete")
	}
	return nil
}
