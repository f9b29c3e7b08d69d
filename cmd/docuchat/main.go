package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dream-ai/docuchat/config"
	"github.com/dream-ai/docuchat/internal/db"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "docuchat",
		Short:         "Upload PDFs and chat with them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is fine
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "settings file (default: ./config.yaml)")

	var addr string
	var skipMigrations bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			return runServe(cmd.Context(), cfg, !skipMigrations)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	serve.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply schema migrations on start")

	var steps int
	migrate := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the chunk and session schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			if err := db.Migrate(cfg.Database.ConnectionString, direction, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations %s completed\n", direction)
			return nil
		},
	}
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	configCmd := &cobra.Command{Use: "config", Short: "Manage the settings file"}
	var initPath string
	configInit := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(initPath); err == nil {
				return fmt.Errorf("%s already exists", initPath)
			}
			if err := config.Default().Save(initPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", initPath)
			return nil
		},
	}
	configInit.Flags().StringVar(&initPath, "path", "config.yaml", "where to write the settings")
	configCmd.AddCommand(configInit)

	root.AddCommand(serve, migrate, configCmd)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
