package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/justifica/datacache"
	"github.com/justifica/datacache/internal/resources"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the cache keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bound := resources.BoundKeys()
		for _, k := range datacache.DefaultKeys() {
			mark := ""
			if slices.Contains(bound, k) {
				mark = " (fetchable)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", k, mark)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cfg.Write(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(keysCmd, configCmd)
}
