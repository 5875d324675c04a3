// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every class and stored paper from the vector store",
	Long: `Clear deletes all classes in the vector store along with their objects.
This cannot be undone; pass --yes to confirm.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().Bool("yes", false, "confirm deletion")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("clear deletes all stored papers; rerun with --yes to confirm")
	}

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

	deleted, err := ix.Clear(ctx)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Vector store is already empty.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d class(es): %s\n", len(deleted), strings.Join(deleted, ", "))
	return nil
}
