package main

import (
	"fmt"

	"github.com/harrylevesque/docverify/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(hashCmd)
}

var hashCmd = &cobra.Command{
	Use:   "hash FILE...",
	Short: "Print the content hash that addresses FILE on upload-form pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			h, err := utils.FileHash(path)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", h, path)
			}
		}
		return nil
	},
}
