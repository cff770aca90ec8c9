package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prudhvinik1/storyline/internal/services"
)

type TokenOptions struct {
	*RootOptions
	Viewer string
	Secret string
	Expiry time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a viewer",
		Long: `Mint a signed bearer token that identifies a viewer to the stories API.

The secret defaults to JWT_SECRET and must match the server's.

Example:
  storyctl token --viewer alice
  storyctl token --viewer me --expiry 1h`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Viewer, "viewer", "", "viewer id the token identifies (required)")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&opts.Expiry, "expiry", 0, "token lifetime (defaults to JWT_EXPIRY)")
	_ = cmd.MarkFlagRequired("viewer")

	return cmd
}

func runToken(opts *TokenOptions, cmd *cobra.Command) error {
	secret := opts.Secret
	if secret == "" {
		secret = opts.Config.JWTSecret
	}
	if secret == "" {
		return errors.New("no signing secret: set JWT_SECRET or pass --secret")
	}

	identity := services.NewIdentityService(secret, durationOr(opts.Expiry, opts.Config.JWTExpiry))
	token, expiresAt, err := identity.IssueToken(opts.Viewer)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	opts.Logger.Debug("token issued", "viewer_id", opts.Viewer, "expires_at", expiresAt.Format(time.RFC3339))
	return nil
}
