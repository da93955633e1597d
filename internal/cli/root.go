package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/pulse-backend/internal/platform/envutil"
)

// Options are the flags shared by every subcommand.
type Options struct {
	Server string
	Token  string
	Output string

	out io.Writer
	err io.Writer
}

func (o *Options) json() bool { return strings.EqualFold(o.Output, "json") }

func (o *Options) printJSON(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *Options) printf(format string, args ...any) {
	fmt.Fprintf(o.out, format, args...)
}

// NewRootCommand builds pulsectl. out and errOut default to stdout and stderr.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	opts := &Options{out: out, err: errOut}

	root := &cobra.Command{
		Use:           "pulsectl",
		Short:         "Operate a pulse workshop session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(opts.Output) {
			case "json", "table":
				return nil
			default:
				return fmt.Errorf("--output must be json or table, got %q", opts.Output)
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.Server, "server", envutil.String("PULSE_SERVER", "http://localhost:8080"), "pulse or workshop server base URL")
	pf.StringVar(&opts.Token, "token", envutil.String("PULSE_TOKEN", ""), "bearer token for the server")
	pf.StringVarP(&opts.Output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newSnapshotCommand(opts),
		newReplayCommand(opts),
		newTokenCommand(opts),
		newWatchCommand(opts),
	)
	return root
}
