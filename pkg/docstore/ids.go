package docstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewDocumentID generates a collision-resistant document id.
//
// UUIDv7 ids are time-ordered, so generated ids sort roughly by creation
// time without extra metadata.
func NewDocumentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new document id: %w", err)
	}

	return id.String(), nil
}

// validateID rejects ids that are empty or would escape the collection
// directory once used as a filename stem.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidArgument)
	}

	if id == "." || id == ".." {
		return fmt.Errorf("%w: id %q is reserved", ErrInvalidArgument, id)
	}

	if strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: id %q contains a path separator", ErrInvalidArgument, id)
	}

	return nil
}
