package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/database/seeders"
	"github.com/decorhub/decorhub/internal/server"
	"github.com/decorhub/decorhub/pkg/database"
	"github.com/decorhub/decorhub/pkg/migration"
	"github.com/decorhub/decorhub/pkg/validate"
)

// withStore opens the database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(db *gorm.DB, store *repositories.Store) error) error {
	db, store, err := server.OpenStore(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db, store)
}

// decorhub migrate
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(db *gorm.DB, _ *repositories.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
				return migration.New(db).WithOutput(cmd.OutOrStdout()).Run()
			})
		},
	}
}

// decorhub migrate:rollback
func migrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last batch of migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(db *gorm.DB, _ *repositories.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
				return migration.New(db).WithOutput(cmd.OutOrStdout()).Rollback()
			})
		},
	}
}

// decorhub migrate:status
func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show the status of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(db *gorm.DB, _ *repositories.Store) error {
				return migration.New(db).WithOutput(cmd.OutOrStdout()).Status()
			})
		},
	}
}

// decorhub seed
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the first admin and default contact settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *gorm.DB, store *repositories.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
				return seeders.RunAll(cmd.Context(), store, cmd.OutOrStdout())
			})
		},
	}
}

// decorhub user:create --username ... --password ... [--role user]
func userCreateCmd() *cobra.Command {
	var in schema.UserInput
	cmd := &cobra.Command{
		Use:   "user:create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Normalize()
			if err := validate.Check(&in); err != nil {
				return err
			}
			return withStore(cmd, func(_ *gorm.DB, store *repositories.Store) error {
				u, err := services.NewAuthService(store).CreateUser(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %q (id %d)\n", u.Role, u.Username, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (8-72 characters)")
	cmd.Flags().StringVar(&in.Role, "role", "admin", "admin or user")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
