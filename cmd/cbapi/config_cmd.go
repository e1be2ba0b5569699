package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/crunchbase-client/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure cbapi settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	setKey := &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the RapidAPI key in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveAPIKey(a.cfgFile, args[0]); err != nil {
				return fmt.Errorf("set api key: %w", err)
			}
			fmt.Fprintln(a.stdout, "API key set successfully.")
			return nil
		},
	}

	getKey := &cobra.Command{
		Use:   "get-key",
		Short: "Show the configured RapidAPI key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.APIKey == "" {
				fmt.Fprintln(a.stdout, "API key is not set.")
				return nil
			}
			fmt.Fprintf(a.stdout, "Current API key: %s\n", a.cfg.APIKey)
			return nil
		},
	}

	cmd.AddCommand(setKey, getKey)
	return cmd
}
