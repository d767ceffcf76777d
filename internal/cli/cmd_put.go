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
	errCollectionRequired = errors.New("collection name is required")
	errIDRequired         = errors.New("document id is required")
	errInvalidJSON        = errors.New("invalid JSON document")
)

// cmdPut creates a document.
//
//	ds put <collection> [json]
//	ds put <collection> --id f1 '{"name":"flexi"}'
//	echo '{"name":"flexi"}' | ds put <collection> -
func (a *app) cmdPut(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("put", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	id := flags.StringP("id", "i", "", "explicit document id")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) < 1 {
		return errCollectionRequired
	}

	raw := "{}"
	if len(rest) > 1 {
		raw = rest[1]
	}

	fields, err := a.parseFields(raw)
	if err != nil {
		return err
	}

	if *id != "" {
		fields[docstore.IDField] = *id
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

	res, err := coll.Create(ctx, fields)
	if err != nil {
		return err
	}

	o.Println(res.ID)

	for _, victim := range res.Evicted {
		o.ErrPrintln("evicted:", victim)
	}

	for _, victim := range res.Skipped {
		o.Warn("eviction skipped %s: victim was locked or already gone", victim)
	}

	return nil
}

// parseFields decodes a JSON object from the argument, reading stdin when
// the argument is "-".
func (a *app) parseFields(raw string) (docstore.Fields, error) {
	if raw == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}

	var fields docstore.Fields

	err := json.Unmarshal([]byte(raw), &fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidJSON, err)
	}

	if fields == nil {
		fields = docstore.Fields{}
	}

	return fields, nil
}
