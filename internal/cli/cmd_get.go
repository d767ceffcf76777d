package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// cmdGet prints one document's content as JSON.
//
//	ds get <collection> <id>
func (a *app) cmdGet(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	meta := flags.BoolP("meta", "m", false, "also print metadata")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) < 1 {
		return errCollectionRequired
	}

	if len(rest) < 2 {
		return errIDRequired
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

	doc, err := coll.Read(ctx, rest[1])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	o.Println(string(data))

	if *meta {
		o.Printf("created: %s\n", doc.CreatedAt.Format(time.RFC3339))
		o.Printf("updated: %s\n", doc.UpdatedAt.Format(time.RFC3339))
	}

	return nil
}
