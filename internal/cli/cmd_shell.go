package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"

	"github.com/calvinalkan/docstore/pkg/docstore"
)

// cmdShell runs an interactive session against one collection.
//
//	ds shell <collection>
func (a *app) cmdShell(ctx context.Context, o *IO, args []string) error {
	flags := flag.NewFlagSet("shell", flag.ContinueOnError)
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

	prompt := liner.NewLiner()
	defer func() { _ = prompt.Close() }()

	prompt.SetCtrlCAborts(true)

	o.Println("ds shell on", coll.Name(), "- type 'help' for commands")

	for {
		input, err := prompt.Prompt("ds> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		prompt.AppendHistory(input)

		if input == "exit" || input == "quit" || input == "q" {
			return nil
		}

		err = a.shellEval(ctx, o, coll, input)
		if err != nil {
			o.ErrPrintln("error:", err)
		}
	}
}

var errShellUsage = errors.New("unknown shell command (try 'help')")

// shellEval dispatches one shell line.
func (a *app) shellEval(ctx context.Context, o *IO, coll *docstore.Collection, input string) error {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		o.Println("  put [json]         create a document")
		o.Println("  get <id>           print a document")
		o.Println("  set <id> <json>    replace a document")
		o.Println("  del <id>           delete a document")
		o.Println("  ls                 list ids, oldest first")
		o.Println("  find <query>       filter documents")
		o.Println("  stats              collection statistics")
		o.Println("  exit               leave the shell")

		return nil
	case "put":
		return a.shellPut(ctx, o, coll, rest)
	case "get":
		return a.shellGet(ctx, o, coll, rest)
	case "set":
		return a.shellSet(ctx, o, coll, rest)
	case "del":
		return a.shellDel(ctx, o, coll, rest)
	case "ls":
		return a.shellLs(ctx, o, coll)
	case "find":
		return a.shellFind(ctx, o, coll, rest)
	case "stats":
		return a.shellStats(ctx, o, coll)
	default:
		return errShellUsage
	}
}

func (a *app) shellPut(ctx context.Context, o *IO, coll *docstore.Collection, rest string) error {
	if rest == "" {
		rest = "{}"
	}

	fields, err := a.parseFields(rest)
	if err != nil {
		return err
	}

	res, err := coll.Create(ctx, fields)
	if err != nil {
		return err
	}

	o.Println(res.ID)

	for _, victim := range res.Evicted {
		o.Println("evicted:", victim)
	}

	return nil
}

func (a *app) shellGet(ctx context.Context, o *IO, coll *docstore.Collection, rest string) error {
	if rest == "" {
		return errIDRequired
	}

	doc, err := coll.Read(ctx, rest)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}

	o.Println(string(data))

	return nil
}

func (a *app) shellSet(ctx context.Context, o *IO, coll *docstore.Collection, rest string) error {
	id, raw, _ := strings.Cut(rest, " ")
	if id == "" {
		return errIDRequired
	}

	fields, err := a.parseFields(strings.TrimSpace(raw))
	if err != nil {
		return err
	}

	res, err := coll.Update(ctx, id, fields)
	if err != nil {
		return err
	}

	o.Println(res.ID)

	return nil
}

func (a *app) shellDel(ctx context.Context, o *IO, coll *docstore.Collection, rest string) error {
	if rest == "" {
		return errIDRequired
	}

	err := coll.Delete(ctx, rest)
	if err != nil {
		return err
	}

	o.Println("deleted", rest)

	return nil
}

func (a *app) shellLs(ctx context.Context, o *IO, coll *docstore.Collection) error {
	stats, err := coll.Stats(ctx)
	if err != nil {
		return err
	}

	for _, meta := range stats.CreatedAscending {
		o.Printf("%s  %s\n", meta.ID, meta.CreatedAt.Format(time.RFC3339))
	}

	return nil
}

func (a *app) shellFind(ctx context.Context, o *IO, coll *docstore.Collection, rest string) error {
	if rest == "" {
		return errQueryRequired
	}

	query, err := parseQuery(rest)
	if err != nil {
		return err
	}

	docs, err := coll.Find(ctx, query)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		line, err := json.Marshal(doc.Fields)
		if err != nil {
			return err
		}

		o.Println(string(line))
	}

	return nil
}

func (a *app) shellStats(ctx context.Context, o *IO, coll *docstore.Collection) error {
	stats, err := coll.Stats(ctx)
	if err != nil {
		return err
	}

	o.Println("documents:", stats.Count)

	return nil
}
