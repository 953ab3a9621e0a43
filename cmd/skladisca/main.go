// Command skladisca runs the warehouse inventory server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/skladisca/internal/config"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(&cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "skladisca",
		Short:        "Multi-warehouse inventory tracker",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver: sqlite or mysql")
	flags.StringVarP(&cfg.DB, "db", "d", cfg.DB, "SQLite database path or MySQL DSN")
	flags.StringVarP(&cfg.LogPath, "log", "l", cfg.LogPath, "log file path (default: stdout/stderr only)")
	flags.StringVarP(&cfg.AdminUser, "user", "u", cfg.AdminUser, "admin username on first run")

	root.AddCommand(newServeCmd(cfg), newInitCmd(cfg))
	return root
}
