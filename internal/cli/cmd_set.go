package cli

import (
	"context"
	"io"

	flag "github.com/spf13/pflag"
)

// cmdSet replaces a document's entire content.
//
//	ds set <collection> <id> <json>
func (a *app) cmdSet(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("set", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

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

	raw := "{}"
	if len(rest) > 2 {
		raw = rest[2]
	}

	fields, err := a.parseFields(raw)
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

	res, err := coll.Update(ctx, rest[1], fields)
	if err != nil {
		return err
	}

	o.Println(res.ID)

	return nil
}
