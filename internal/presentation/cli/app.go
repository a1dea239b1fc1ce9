// Package cli implements the scamshield operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/scamshield/pkg/observability"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	debugFlag  = "debug"
	formatFlag = "format"
)

// NewApp builds the root command. version is reported by --version and the
// version subcommand. Every call returns fresh flags, so an app may be run
// more than once.
func NewApp(version, commit string) *urfave.Command {
	return &urfave.Command{
		Name:    "scamshield",
		Usage:   "Score text messages for scam and fraud risk",
		Version: version,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs to stderr (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*urfave.Command{
			classifyCmd(),
			batchCmd(),
			indicatorsCmd(),
			statusCmd(),
			eventsCmd(),
			devCertsCmd(),
			versionCmd(version, commit),
		},
	}
}

func versionCmd(version, commit string) *urfave.Command {
	return &urfave.Command{
		Name:  "version",
		Usage: "Prints the CLI version",
		Action: func(_ context.Context, cmd *urfave.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if commit == "" {
				commit = "unknown"
			}
			_, err = fmt.Fprintf(e.out, "scamshield %s (commit: %s)\n", version, commit)
			return err
		},
	}
}

// env carries what every action needs from the root command.
type env struct {
	out    io.Writer
	in     io.Reader
	format string
	logger *slog.Logger
}

func newEnv(cmd *urfave.Command) (*env, error) {
	root := cmd.Root()

	format := root.String(formatFlag)
	switch format {
	case formatJSON:
	case formatYAML, "yml":
		format = formatYAML
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	out, in, errOut := root.Writer, root.Reader, root.ErrWriter
	if out == nil {
		out = os.Stdout
	}
	if in == nil {
		in = os.Stdin
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	level := "warn"
	if root.Bool(debugFlag) {
		level = "debug"
	}
	logger := observability.InitLogger(observability.LogConfig{
		Level:   level,
		Format:  "text",
		Service: "scamshield-cli",
		Output:  errOut,
	})

	return &env{out: out, in: in, format: format, logger: logger}, nil
}

func (e *env) encode(v any) error {
	if e.format == formatYAML {
		enc := yaml.NewEncoder(e.out)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
