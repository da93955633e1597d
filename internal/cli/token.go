package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httpMW "github.com/yungbote/pulse-backend/internal/http/middleware"
	"github.com/yungbote/pulse-backend/internal/platform/envutil"
)

func newTokenCommand(opts *Options) *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the dashboard API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(secret) == "" {
				return fmt.Errorf("--secret or AUTH_JWT_SECRET required")
			}
			tok, err := httpMW.SignToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			if opts.json() {
				return opts.printJSON(map[string]any{"token": tok, "subject": subject, "expiresIn": ttl.String()})
			}
			opts.printf("%s\n", tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", envutil.String("AUTH_JWT_SECRET", ""), "HMAC secret shared with the server")
	cmd.Flags().StringVar(&subject, "subject", "facilitator", "operator name placed in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	return cmd
}
