// Package cli implements the ds command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/docstore/pkg/docstore"
)

const helpFlag = "--help"

var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownFlag     = errors.New("unknown flag")
)

// globalFlags are the flags accepted before the command name.
type globalFlags struct {
	workDir    string
	configPath string
	dataDir    string
	remaining  []string
}

// Run is the main entry point. Returns the process exit code.
func Run(stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(out, errOut)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			o.ErrPrintln("error: cannot get working directory:", err)

			return 1
		}
	}

	cfg, sources, err := LoadConfig(workDir, flags.configPath, env)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}

	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(workDir, dataDir)
	}

	if len(flags.remaining) == 0 {
		printUsage(o)

		return 0
	}

	cmd := flags.remaining[0]
	cmdArgs := flags.remaining[1:]

	if cmd == "-h" || cmd == helpFlag {
		printUsage(o)

		return 0
	}

	ctx := context.Background()

	app := &app{cfg: cfg, sources: sources, dataDir: dataDir, stdin: stdin}

	var cmdErr error

	switch cmd {
	case "put":
		cmdErr = app.cmdPut(ctx, o, cmdArgs)
	case "get":
		cmdErr = app.cmdGet(ctx, o, cmdArgs)
	case "set":
		cmdErr = app.cmdSet(ctx, o, cmdArgs)
	case "rm":
		cmdErr = app.cmdRm(ctx, o, cmdArgs)
	case "ls":
		cmdErr = app.cmdLs(ctx, o, cmdArgs)
	case "find":
		cmdErr = app.cmdFind(ctx, o, cmdArgs)
	case "stats":
		cmdErr = app.cmdStats(ctx, o, cmdArgs)
	case "export":
		cmdErr = app.cmdExport(ctx, o, cmdArgs)
	case "shell":
		cmdErr = app.cmdShell(ctx, o, cmdArgs)
	case "print-config":
		cmdErr = app.cmdPrintConfig(o)
	default:
		o.ErrPrintln("error: unknown command:", cmd)
		printUsage(o)

		return 1
	}

	if cmdErr != nil {
		o.ErrPrintln("error:", cmdErr)

		return 1
	}

	return o.Finish()
}

// app bundles the resolved configuration for command implementations.
type app struct {
	cfg     Config
	sources ConfigSources
	dataDir string
	stdin   io.Reader
}

// openStore opens the registry over the configured data directory.
func (a *app) openStore() (*docstore.Registry, error) {
	return docstore.Open(docstore.Config{Root: a.dataDir})
}

// collection resolves a collection, applying any configured size cap.
func (a *app) collection(ctx context.Context, reg *docstore.Registry, name string) (*docstore.Collection, error) {
	var opts docstore.Options

	if cc, ok := a.cfg.Collections[name]; ok {
		opts.MaxDocuments = cc.MaxDocuments
	}

	return reg.Collection(ctx, name, opts)
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	i := 0

	for i < len(args) {
		arg := args[i]

		// Flags may arrive as "--flag value" or "--flag=value"; match on
		// the name alone and let flagValue pick the argument apart.
		name, _, _ := strings.Cut(arg, "=")

		switch {
		case name == "-C" || name == "--chdir":
			value, consumed, err := flagValue(args, i, arg)
			if err != nil {
				return globalFlags{}, err
			}

			flags.workDir = value
			i += consumed
		case name == "--config":
			value, consumed, err := flagValue(args, i, arg)
			if err != nil {
				return globalFlags{}, err
			}

			flags.configPath = value
			i += consumed
		case name == "--dir":
			value, consumed, err := flagValue(args, i, arg)
			if err != nil {
				return globalFlags{}, err
			}

			flags.dataDir = value
			i += consumed
		case strings.HasPrefix(arg, "-") && arg != "-h" && arg != helpFlag && !isCommand(arg):
			return globalFlags{}, fmt.Errorf("%w: %s", errUnknownFlag, arg)
		default:
			flags.remaining = args[i:]

			return flags, nil
		}
	}

	return flags, nil
}

// flagValue extracts a flag's argument, supporting both "--flag value"
// and "--flag=value".
func flagValue(args []string, i int, name string) (string, int, error) {
	arg := args[i]

	if _, value, ok := strings.Cut(arg, "="); ok {
		return value, 1, nil
	}

	if i+1 >= len(args) {
		return "", 0, fmt.Errorf("%w: %s", errFlagRequiresArg, name)
	}

	return args[i+1], 2, nil
}

func isCommand(arg string) bool {
	switch arg {
	case "put", "get", "set", "rm", "ls", "find", "stats", "export", "shell", "print-config":
		return true
	}

	return false
}

func printUsage(o *IO) {
	o.Println("ds - file-backed document store")
	o.Println()
	o.Println("Usage: ds [global flags] <command> [args]")
	o.Println()
	o.Println("Commands:")
	o.Println("  put <collection> [json]         Create a document")
	o.Println("  get <collection> <id>           Print a document")
	o.Println("  set <collection> <id> <json>    Replace a document's content")
	o.Println("  rm <collection> <id>            Delete a document")
	o.Println("  ls <collection>                 List documents")
	o.Println("  find <collection> <query>       Filter documents (JSON query)")
	o.Println("  stats <collection>              Show collection statistics")
	o.Println("  export <collection>             Dump a collection to one file")
	o.Println("  shell <collection>              Interactive session")
	o.Println("  print-config                    Show resolved configuration")
	o.Println()
	o.Println("Global flags:")
	o.Println("  -C, --chdir <dir>   Run as if started in <dir>")
	o.Println("      --config <file> Explicit config file")
	o.Println("      --dir <dir>     Storage root (overrides config data_dir)")
}
