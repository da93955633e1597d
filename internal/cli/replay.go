package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/pulse-backend/internal/app"
	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight"
	"github.com/yungbote/pulse-backend/internal/insight/reveal"
	"github.com/yungbote/pulse-backend/internal/interpret"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/services"
	"github.com/yungbote/pulse-backend/internal/tui"
)

type replayReport struct {
	Result         services.ReplayResult    `json:"result"`
	Phase          string                   `json:"phase"`
	Synthesis      []domain.DomainSynthesis `json:"synthesis"`
	PressurePoints []domain.PressurePoint   `json:"pressurePoints"`
	Reveal         reveal.Status            `json:"reveal"`
}

func newReplayCommand(opts *Options) *cobra.Command {
	var narrative string
	cmd := &cobra.Command{
		Use:   "replay <transcript.jsonl>",
		Short: "Run recorded transcript chunks through the insight model offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			model := insight.New(app.InsightConfig(cfg.Insight), insight.Deps{
				Log:         logger.Nop(),
				Interpreter: interpret.NewKeyword(),
			})
			res, err := services.Replay(cmd.Context(), logger.Nop(), model, f)
			if err != nil {
				return fmt.Errorf("replay %s: %w", args[0], err)
			}
			if narrative != "" {
				model.SetNarrative(narrative)
			}
			rep := replayReport{
				Result:         res,
				Phase:          model.Phase(),
				Synthesis:      model.Synthesis(),
				PressurePoints: model.PressurePoints(),
				Reveal:         model.Reveal(),
			}
			if opts.json() {
				return opts.printJSON(rep)
			}
			return printReplay(opts, rep)
		},
	}
	cmd.Flags().StringVar(&narrative, "narrative", "", "facilitator narrative to evaluate the reveal gate against")
	return cmd
}

func printReplay(opts *Options, rep replayReport) error {
	opts.printf("lines=%d forwarded=%d skipped=%d themed=%d phase=%s\n\n",
		rep.Result.Lines, rep.Result.Forwarded, rep.Result.Skipped, rep.Result.Themed, rep.Phase)

	tw := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tCATEGORY\tSTRENGTH\tLABEL")
	for _, ds := range rep.Synthesis {
		cats := make([]string, 0, len(ds.Categories))
		for c := range ds.Categories {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		for _, c := range cats {
			for _, it := range ds.Categories[domain.SynthesisCategory(c)] {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", ds.Domain, c, it.Strength, it.Label)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	opts.printf("\npressure points:\n")
	if len(rep.PressurePoints) == 0 {
		opts.printf("  none\n")
	}
	for _, p := range rep.PressurePoints {
		opts.printf("  %s\n", tui.FormatPressurePoint(p))
	}

	state := "not ready"
	if rep.Reveal.Ready {
		state = "ready"
	}
	opts.printf("\nreveal: %s\n", state)
	for _, c := range rep.Reveal.Checks {
		opts.printf("  %-10s %d/%d satisfied=%t\n", c.Name, c.Have, c.Need, c.Satisfied)
	}
	return nil
}
