package main

import (
	"fmt"
	"os"

	"github.com/harrylevesque/docverify/internal/controller"
	"github.com/spf13/cobra"
)

var (
	verifyFlags     widgetFlags
	description     string
	descriptionFile string
)

func init() {
	verifyFlags.register(verifyCmd)
	verifyCmd.Flags().StringVar(&description, "description", "", "description to send with the verification")
	verifyCmd.Flags().StringVar(&descriptionFile, "description-file", "", "read the description from this file")
	verifyCmd.MarkFlagsMutuallyExclusive("description", "description-file")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Ask the portal to verify a subject",
	Long: `Ask the portal to verify a subject. Document pages send the description
the portal compares against what it stored, so --description or
--description-file is required for them; pass --description "" to send an
empty one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var desc *string
		switch {
		case descriptionFile != "":
			b, err := os.ReadFile(descriptionFile)
			if err != nil {
				return err
			}
			s := string(b)
			desc = &s
		case cmd.Flags().Changed("description"):
			desc = &description
		}
		v, err := controller.VariantByName(verifyFlags.variant)
		if err != nil {
			return err
		}
		if desc == nil && v.Verify && v.Addressing == controller.ByID {
			return fmt.Errorf("%s pages need --description or --description-file", v.Name)
		}

		s, err := verifyFlags.open(cmd, false)
		if err != nil {
			return err
		}
		r, err := s.Verify(desc)
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), r)
	},
}
