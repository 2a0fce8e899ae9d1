package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and manage the business configuration",
	Long: `The business configuration holds the lending groups, the allowed terms,
the staff roles and the interest rate. It lives in the local store and is
replaced by the lookup sheet when the spreadsheet carries one.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the business configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		return printJSON(env.app.Config())
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default business configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		cfg, err := env.app.ResetConfig(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("✓ Configuration reset")

		return printJSON(cfg)
	},
}

var configRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the configuration from the lookup sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		cfg, fromSheet, err := env.app.RefreshConfig(cmd.Context())
		if err != nil {
			return err
		}

		if fromSheet {
			fmt.Println("✓ Configuration loaded from the lookup sheet")
		} else {
			fmt.Println("Lookup sheet has no configuration; keeping the stored one")
		}

		return printJSON(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file and data paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}

		storePath, err := s.StorePath()
		if err != nil {
			return err
		}

		fmt.Printf("Settings: %s\n", path)
		fmt.Printf("Store:    %s (%s)\n", storePath, s.Store.Driver)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configResetCmd, configRefreshCmd, configPathCmd)
}
