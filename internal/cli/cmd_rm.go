package cli

import (
	"context"
	"io"

	flag "github.com/spf13/pflag"
)

// cmdRm deletes a document.
//
//	ds rm <collection> <id>
func (a *app) cmdRm(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("rm", flag.ContinueOnError)
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

	reg, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	coll, err := a.collection(ctx, reg, rest[0])
	if err != nil {
		return err
	}

	err = coll.Delete(ctx, rest[1])
	if err != nil {
		return err
	}

	o.Println("deleted", rest[1])

	return nil
}
