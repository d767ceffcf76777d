package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/calvinalkan/docstore/pkg/fs"
)

// IDField is the reserved field name carrying a document's identity.
//
// Identity lives in the filename stem, never in the stored content: a
// value under this key is honored on create (as the requested id),
// rejected on update (identity is immutable), and overwritten with the
// filename-derived id on read.
const IDField = "id"

// Fields is a document's content: an arbitrary map of JSON-representable
// values.
type Fields map[string]any

// Document is one stored record with its filesystem metadata attached.
//
// CreatedAt and UpdatedAt come from the file's stat info on read; they are
// never persisted inside the document content.
type Document struct {
	// ID is the filename-derived identity.
	ID string

	// Fields is the parsed content. Fields[IDField] always equals ID,
	// regardless of what the stored bytes contain.
	Fields Fields

	// Path is the absolute path of the backing file.
	Path string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meta is a light metadata record for listings and statistics; no content.
type Meta struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// encodeFields serializes content for storage. The on-disk representation
// is the raw field map, no wrapper envelope.
func encodeFields(fields Fields) ([]byte, error) {
	if fields == nil {
		fields = Fields{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	return data, nil
}

// decodeDocument parses stored bytes and attaches identity and metadata.
// The filename-derived id overrides any identity field inside the content.
func decodeDocument(id, path string, data []byte, info os.FileInfo) (Document, error) {
	var fields Fields

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	if fields == nil {
		fields = Fields{}
	}

	fields[IDField] = id

	created, modified := fs.FileTimes(path, info)

	return Document{
		ID:        id,
		Fields:    fields,
		Path:      path,
		CreatedAt: created,
		UpdatedAt: modified,
	}, nil
}
