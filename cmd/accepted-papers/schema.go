// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the paper class in the vector store if it is missing",
	Long: `Schema creates the vector-store class that holds paper records. It does
nothing when the class already exists, so it is safe to run repeatedly.
"scrape --index" runs it automatically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ix, closeIndex, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeIndex()

		if err := ix.EnsureSchema(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema ready: class %s in %s\n", ix.Class(), cfg.Store.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
