package cli

import (
	"flag"
	"fmt"
	"io"
)

const versionString = "1.0.0"

const (
	commandIndex  = "index"
	commandFiles  = "files"
	commandLookup = "lookup"
	commandServe  = "serve"
	commandPick   = "pick"
)

type cliOptions struct {
	configPath string
	dbPath     string
	root       string
	addr       string
	limit      int
	jsonOutput bool
	verbose    bool
	version    bool
	command    string
	args       []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./complete.toml when present)")
	fs.StringVar(&opts.dbPath, "db", "", "Path to the symbol database (overrides db.path)")
	fs.StringVar(&opts.root, "root", "", "Source root stripped from stored paths (overrides index.source_root)")
	fs.StringVar(&opts.addr, "addr", "", "Listen address for serve (overrides server.address)")
	fs.IntVar(&opts.limit, "limit", 0, "Maximum number of search results (overrides search.limit)")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Print query results as JSON")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: complete [flags] [index] <file>...")
		fmt.Fprintln(stderr, "       complete [flags] files <query>")
		fmt.Fprintln(stderr, "       complete [flags] lookup <symbol>")
		fmt.Fprintln(stderr, "       complete [flags] serve")
		fmt.Fprintln(stderr, "       complete [flags] pick")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	rest := fs.Args()
	opts.command = commandIndex
	if len(rest) > 0 {
		switch rest[0] {
		case commandIndex, commandFiles, commandLookup, commandServe, commandPick:
			opts.command = rest[0]
			rest = rest[1:]
		}
	}
	opts.args = rest
	return opts, nil
}

func validateCommand(opts cliOptions) error {
	switch opts.command {
	case commandIndex:
		if len(opts.args) == 0 {
			return fmt.Errorf("index requires at least one source file")
		}
	case commandFiles:
		if len(opts.args) > 1 {
			return fmt.Errorf("files takes a single query")
		}
	case commandLookup:
		if len(opts.args) != 1 {
			return fmt.Errorf("lookup requires exactly one symbol name")
		}
	case commandServe, commandPick:
		if len(opts.args) != 0 {
			return fmt.Errorf("%s takes no arguments", opts.command)
		}
	}
	return nil
}
