// Command decorhub runs the catalog API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Migrations and seeders register themselves from init().
	_ "github.com/decorhub/decorhub/database/migrations"
	_ "github.com/decorhub/decorhub/database/seeders"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "decorhub",
		Short:         "Decoration rental catalog and admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Server
	root.AddCommand(serveCmd())
	root.AddCommand(routeListCmd())

	// Database
	root.AddCommand(migrateCmd())
	root.AddCommand(migrateRollbackCmd())
	root.AddCommand(migrateStatusCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(userCreateCmd())
	return root
}
