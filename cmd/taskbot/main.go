package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/taskbot/core/buildinfo"
	corecmd "github.com/m3rciful/taskbot/core/cmd"
	"github.com/m3rciful/taskbot/internal/app"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "taskbot",
		Short:         "Telegram task manager bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (default $"+configEnvVar+" or "+defaultConfigPath+")")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newMigrateCmd(&configPath),
		newVersionCmd(),
	)
	return rootCmd
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(*configPath)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := app.Migrate(cfg); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskbot %s\n", buildinfo.String())
		},
	}
}

func runOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg.(*app.Config))
		},
	}
}

func runBot(configPath string) error {
	return corecmd.Run(runOptions(configPath))
}

func loadConfig(configPath string) (*app.Config, error) {
	path, err := corecmd.ResolveConfigPath(runOptions(configPath))
	if err != nil {
		return nil, err
	}
	return app.LoadConfig(path)
}
