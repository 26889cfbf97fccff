package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"car-showroom/internal/repository"
	"car-showroom/internal/service"

	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	pruneBefore   time.Duration
)

// createAdminCmd registers a dashboard account
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a dashboard admin account",
	Long: `Create an admin account. There is no sign-up endpoint, so this is the
only way to add admins. The password may also be given in ADMIN_PASSWORD.`,
	RunE: runCreateAdmin,
}

var adminsCmd = &cobra.Command{
	Use:   "admins",
	Short: "Inspect admin accounts",
}

var adminsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List admin accounts",
	RunE:  runAdminsList,
}

// pruneTokensCmd deletes refresh tokens past their expiry
var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete expired refresh tokens",
	RunE:  runPruneTokens,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")

	pruneTokensCmd.Flags().DurationVar(&pruneBefore, "grace", 0, "keep tokens that expired less than this long ago")
}

func newAuthService(db *sql.DB) service.AuthService {
	return service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		nil,
		service.TokenOptions{Secret: cfg.JWT.Secret},
	)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	return withDB(cmd.Context(), func(db *sql.DB) error {
		user, err := newAuthService(db).Register(cmd.Context(), adminEmail, password)
		if err != nil {
			if errors.Is(err, repository.ErrUserAlreadyExists) {
				return fmt.Errorf("an admin with email %s already exists", adminEmail)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
		return nil
	})
}

func runAdminsList(cmd *cobra.Command, args []string) error {
	return withDB(cmd.Context(), func(db *sql.DB) error {
		admins, err := newAuthService(db).ListAdmins(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tCREATED")
		for _, u := range admins {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	})
}

func runPruneTokens(cmd *cobra.Command, args []string) error {
	return withDB(cmd.Context(), func(db *sql.DB) error {
		n, err := repository.NewRefreshTokenRepository(db).DeleteExpired(cmd.Context(), time.Now().Add(-pruneBefore))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired refresh tokens\n", n)
		return nil
	})
}
