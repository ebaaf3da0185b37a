package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/spotify-track-export/internal/auth"
	"github.com/justestif/spotify-track-export/internal/config"
)

func newAuthorizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "authorize",
		Short: "Obtain a new authorization code",
		Long: `Obtain a new authorization code and store it in the configuration file.

This command will:
1. Start a local server on the host of redirectUrl
2. Print a Spotify URL for you to open and approve
3. Capture the code Spotify sends to redirectUrl and save it as authorizationCode

redirectUrl must be registered for your app in the Spotify developer dashboard.
A stored refresh token is never replaced, so run logout first if you want the
new code to produce a fresh one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authorizer, err := auth.NewAuthorizer(a.cfg.Credentials, cmd.OutOrStdout(), a.logger)
			if err != nil {
				return err
			}

			code, err := authorizer.AuthorizationCode(cmd.Context())
			if err != nil {
				return err
			}

			if err := config.SaveAuthorizationCode(a.configPath, code); err != nil {
				return fmt.Errorf("saving authorization code: %w", err)
			}

			a.logger.Info().Str("config", a.configPath).Msg("Authorization code saved")
			return nil
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored refresh token",
		Long: `Delete the stored refresh token. The next run exchanges the configured
authorization code again and stores the refresh token it returns.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store := auth.NewTokenStore(a.cfg.RefreshTokenPath)

			if err := store.Delete(); err != nil {
				return err
			}

			a.logger.Info().Str("path", store.Path()).Msg("Logged out")
			return nil
		},
	}
}
