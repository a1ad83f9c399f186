package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/config"
	"github.com/joestump/curated-links/internal/store"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUsersAddCmd())
	cmd.AddCommand(newUsersSubscribeCmd())
	return cmd
}

func newUsersAddCmd() *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print an API token for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "user" && role != "admin" {
				return fmt.Errorf("role must be user or admin, got %q", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			ctx := cmd.Context()
			u, err := store.NewUserStore(database).Create(ctx, name, email, role)
			if err != nil {
				return errors.Wrapf(err, "create user %s", email)
			}
			token, _, err := auth.Issue(ctx, auth.NewSQLTokenStore(database), u.ID, "cli", 0)
			if err != nil {
				return errors.Wrap(err, "issue token")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			fmt.Fprintf(out, "token: %s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", "user", "user or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUsersSubscribeCmd() *cobra.Command {
	var email string
	var slugs []string

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Replace a user's category subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			ctx := cmd.Context()
			users := store.NewUserStore(database)
			u, err := users.GetByEmail(ctx, email)
			if err != nil {
				return errors.Wrapf(err, "find user %s", email)
			}
			ids, err := categoryIDs(ctx, store.NewCategoryStore(database), slugs)
			if err != nil {
				return err
			}
			if err := users.SetSubscriptions(ctx, u.ID, ids); err != nil {
				return errors.Wrap(err, "set subscriptions")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s subscribed to %d categories\n", u.Email, len(ids))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the user")
	cmd.Flags().StringSliceVar(&slugs, "category", nil, "category slug (repeatable)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func categoryIDs(ctx context.Context, categories *store.CategoryStore, slugs []string) ([]string, error) {
	ids := make([]string, 0, len(slugs))
	for _, s := range slugs {
		c, err := categories.GetBySlug(ctx, s)
		if err != nil {
			return nil, errors.Wrapf(err, "category %q", s)
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}
