package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/pulse-backend/internal/clients/workshop"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/snapshot"
)

func (o *Options) snapshotClient() (*workshop.Client, error) {
	return workshop.New(logger.Nop(), workshop.Config{BaseURL: o.Server, APIToken: o.Token, Timeout: 30 * time.Second})
}

func newSnapshotCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect snapshots stored behind the snapshot contract",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.snapshotClient()
			if err != nil {
				return err
			}
			list, err := c.ListSnapshots(cmd.Context())
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}
			if opts.json() {
				return opts.printJSON(list)
			}
			tw := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPHASE\tCREATED")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Phase, s.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one snapshot and summarize its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.snapshotClient()
			if err != nil {
				return err
			}
			blob, err := c.GetSnapshot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get snapshot: %w", err)
			}
			if opts.json() {
				return opts.printJSON(blob)
			}
			opts.printf("%s  %q  phase=%s  created=%s\n", blob.ID, blob.Name, blob.Phase, blob.CreatedAt.Format(time.RFC3339))
			s, err := snapshot.Decode(blob.Payload)
			if err != nil {
				opts.printf("payload: invalid (%v)\n", err)
				return nil
			}
			opts.printf("payload: version=%d utterances=%d themes=%d lexical_themes=%d edges=%d processed=%d latched=%t\n",
				s.Version, len(s.Utterances), len(s.Themes), len(s.LexicalThemes), len(s.DependencyEdges), s.ProcessedCount, s.RevealLatched)
			return nil
		},
	})
	return cmd
}
