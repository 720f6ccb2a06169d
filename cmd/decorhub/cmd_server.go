package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/decorhub/decorhub/app/routes"
	"github.com/decorhub/decorhub/internal/server"
	"github.com/decorhub/decorhub/pkg/router"
)

// decorhub serve
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Start()
		},
	}
}

// decorhub route:list
func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List every registered API route",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := router.New()
			routes.RegisterAPI(r, routes.Deps{})

			infos := r.Routes()
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "No routes registered.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			fmt.Fprintln(w, "------\t----\t----")
			for _, ri := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
			}
			return w.Flush()
		},
	}
}
