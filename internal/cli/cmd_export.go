package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docstore/pkg/fs"
)

// cmdExport dumps a collection to a single JSON file mapping ids to
// content. The dump is written atomically so a crashed export never
// leaves a truncated file.
//
//	ds export <collection> [-o out.json]
func (a *app) cmdExport(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	outPath := flags.StringP("out", "o", "", "output file (default <collection>.json)")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) < 1 {
		return errCollectionRequired
	}

	name := rest[0]

	path := *outPath
	if path == "" {
		path = name + ".json"
	}

	reg, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	coll, err := a.collection(ctx, reg, name)
	if err != nil {
		return err
	}

	docs, err := coll.All(ctx)
	if err != nil {
		return err
	}

	dump := make(map[string]any, len(docs))
	for _, doc := range docs {
		dump[doc.ID] = doc.Fields
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	err = fs.NewReal().WriteFileAtomic(path, append(data, '\n'), 0o644)
	if err != nil {
		return err
	}

	o.Printf("exported %d documents to %s\n", len(docs), path)

	return nil
}
