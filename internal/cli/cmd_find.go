package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docstore/pkg/docstore"
)

var (
	errQueryRequired = errors.New("query is required (a JSON object, e.g. '{\"where\":{\"age\":{\"$gte\":50}}}')")
	errInvalidQuery  = errors.New("invalid query")
)

// queryRequest is the wire form of a find query.
type queryRequest struct {
	Where map[string]any `json:"where,omitempty"`
	Sort  *sortRequest   `json:"sort,omitempty"`
	Limit int            `json:"limit,omitempty"`

	Offset int `json:"offset,omitempty"`
}

type sortRequest struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"` // "asc" (default) or "desc"
}

// cmdFind filters a collection with a declarative JSON query and prints
// matching documents, one JSON object per line.
//
//	ds find <collection> '{"where":{"age":{"$gte":50}},"sort":{"field":"age"},"limit":10}'
func (a *app) cmdFind(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("find", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	countOnly := flags.BoolP("count", "c", false, "print only the match count")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) < 1 {
		return errCollectionRequired
	}

	if len(rest) < 2 {
		return errQueryRequired
	}

	query, err := parseQuery(rest[1])
	if err != nil {
		return err
	}

	reg, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	coll, err := a.collection(ctx, reg, rest[0])
	if err != nil {
		return err
	}

	docs, err := coll.Find(ctx, query)
	if err != nil {
		return err
	}

	if *countOnly {
		o.Println(len(docs))

		return nil
	}

	for _, doc := range docs {
		line, err := json.Marshal(doc.Fields)
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", doc.ID, err)
		}

		o.Println(string(line))
	}

	return nil
}

func parseQuery(raw string) (docstore.Query, error) {
	var req queryRequest

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&req)
	if err != nil {
		return docstore.Query{}, fmt.Errorf("%w: %w", errInvalidQuery, err)
	}

	query := docstore.Query{
		Where:  req.Where,
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if req.Sort != nil {
		order := docstore.Ascending

		switch req.Sort.Order {
		case "", "asc":
		case "desc":
			order = docstore.Descending
		default:
			return docstore.Query{}, fmt.Errorf("%w: sort order %q (want asc or desc)", errInvalidQuery, req.Sort.Order)
		}

		query.Sort = &docstore.Sort{Field: req.Sort.Field, Order: order}
	}

	return query, nil
}
