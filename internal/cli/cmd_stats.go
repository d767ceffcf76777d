package cli

import (
	"context"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// cmdStats prints a collection's document count and its oldest/newest
// documents by creation and modification time.
//
//	ds stats <collection>
func (a *app) cmdStats(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("stats", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

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

	o.Printf("collection: %s\n", coll.Name())
	o.Printf("documents:  %d\n", stats.Count)

	if max, capped := coll.MaxDocuments(); capped {
		o.Printf("cap:        %d\n", max)
	}

	if stats.Count == 0 {
		return nil
	}

	oldest := stats.CreatedAscending[0]
	newest := stats.CreatedAscending[len(stats.CreatedAscending)-1]
	stalest := stats.UpdatedAscending[0]
	freshest := stats.UpdatedAscending[len(stats.UpdatedAscending)-1]

	o.Printf("oldest:     %s (%s)\n", oldest.ID, oldest.CreatedAt.Format(time.RFC3339))
	o.Printf("newest:     %s (%s)\n", newest.ID, newest.CreatedAt.Format(time.RFC3339))
	o.Printf("stalest:    %s (%s)\n", stalest.ID, stalest.UpdatedAt.Format(time.RFC3339))
	o.Printf("freshest:   %s (%s)\n", freshest.ID, freshest.UpdatedAt.Format(time.RFC3339))

	return nil
}
