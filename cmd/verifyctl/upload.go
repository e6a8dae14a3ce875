package main

import (
	"github.com/harrylevesque/docverify/internal/controller"
	"github.com/harrylevesque/docverify/internal/dom"
	"github.com/harrylevesque/docverify/internal/utils"
	"github.com/spf13/cobra"
)

var uploadFlags widgetFlags

func init() {
	uploadFlags.register(uploadCmd)
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a file for a subject",
	Long: `Upload FILE the way the page's file input would. For upload-form pages the
content hash is derived from FILE when --hash is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if uploadFlags.variant == controller.UploadForm.Name && uploadFlags.hash == "" {
			h, err := utils.FileHash(path)
			if err != nil {
				return err
			}
			uploadFlags.hash = h
		}
		s, err := uploadFlags.open(cmd, true)
		if err != nil {
			return err
		}
		r, err := s.Upload(dom.OpenFile(path))
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), r)
	},
}
