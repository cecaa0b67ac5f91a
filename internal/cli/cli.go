// Package cli parses the vitel command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// ExitError carries the process exit code for a command line error
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Command names
const (
	CmdDirectory = "directory"
	CmdFilter    = "filter"
)

// Settings is the parsed command line
type Settings struct {
	ConfigPath string
	Manifests  []string
	LogLevel   string
	LogFormat  string

	Command string

	// directory
	Format string

	// filter
	Filter  string
	Value   string
	Options map[string]any
}

// Parse reads args. shouldExit is true when usage was printed and there is
// nothing left to do.
func Parse(args []string, output io.Writer) (settings *Settings, shouldExit bool, err error) {
	flagSet := flag.NewFlagSet("vitel", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
vitel - realize declared services and apply filters.

Usage:
  vitel [options] directory [tree|yaml]
  vitel [options] filter NAME VALUE [key=value ...]

Commands:
  directory  Print every realized service as a tree or a YAML snapshot.
  filter     Apply a registered filter to VALUE with optional options.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the config file. Defaults to $VITEL_CONFIG or ./vitel.yaml.")
	manifestFlag := flagSet.String("manifest", "", "Comma separated manifest files or directories, added to the configured ones.")
	logLevelFlag := flagSet.String("log-level", "", "Override the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "", "Override the log format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	settings = &Settings{
		ConfigPath: *configFlag,
		LogLevel:   strings.ToLower(*logLevelFlag),
		LogFormat:  strings.ToLower(*logFormatFlag),
		Command:    flagSet.Arg(0),
	}
	if *manifestFlag != "" {
		for _, p := range strings.Split(*manifestFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				settings.Manifests = append(settings.Manifests, p)
			}
		}
	}

	switch settings.LogFormat {
	case "", "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch settings.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	rest := flagSet.Args()[1:]
	switch settings.Command {
	case CmdDirectory:
		settings.Format = "tree"
		if len(rest) > 0 {
			settings.Format = rest[0]
		}
		if settings.Format != "tree" && settings.Format != "yaml" {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid directory format %q: must be 'tree' or 'yaml'", settings.Format)}
		}
	case CmdFilter:
		if len(rest) < 2 {
			return nil, false, &ExitError{Code: 2, Message: "filter needs a NAME and a VALUE"}
		}
		settings.Filter, settings.Value = rest[0], rest[1]
		settings.Options, err = parseOptions(rest[2:])
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", settings.Command)}
	}

	return settings, false, nil
}

// parseOptions reads key=value pairs. Booleans and numbers are typed, anything
// else stays a string.
func parseOptions(pairs []string) (map[string]any, error) {
	opts := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q: want key=value", pair)
		}
		opts[key] = typed(val)
	}
	return opts, nil
}

func typed(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// LogFormat picks text for a terminal and json for anything else
func LogFormat(f *os.File) string {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return "text"
	}
	return "json"
}
