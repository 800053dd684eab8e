// Command kiraana runs the QuickKiraana API and its maintenance tasks.
//
//	kiraana serve              # start the HTTP and gRPC servers
//	kiraana route:list         # list API routes
//	kiraana migrate            # run pending migrations (STORE_DRIVER=sql)
//	kiraana migrate:rollback
//	kiraana migrate:status
//	kiraana seed               # create demo shops
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import migrations so their init() funcs run and register themselves.
	_ "github.com/quickkiraana/kiraana/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "kiraana",
	Short:         "QuickKiraana order service",
	Long:          "Order placement, status tracking and shop dashboards for neighbourhood kirana stores.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
