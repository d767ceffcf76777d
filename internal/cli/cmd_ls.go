package cli

import (
	"context"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// cmdLs lists a collection's documents, newest first.
//
//	ds ls <collection>
func (a *app) cmdLs(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	long := flags.BoolP("long", "l", false, "include timestamps")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) < 1 {
		return errCollectionRequired
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

	stats, err := coll.Stats(ctx)
	if err != nil {
		return err
	}

	// Reverse of created-ascending: newest first.
	for i := len(stats.CreatedAscending) - 1; i >= 0; i-- {
		meta := stats.CreatedAscending[i]

		if *long {
			o.Printf("%s  %s  %s\n",
				meta.ID,
				meta.CreatedAt.Format(time.RFC3339),
				meta.UpdatedAt.Format(time.RFC3339),
			)

			continue
		}

		o.Println(meta.ID)
	}

	return nil
}
