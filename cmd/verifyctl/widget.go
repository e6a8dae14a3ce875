package main

import (
	"fmt"
	"io"

	"github.com/harrylevesque/docverify/internal/controller"
	"github.com/harrylevesque/docverify/internal/headless"
	"github.com/spf13/cobra"
)

// widgetFlags are shared by upload and verify.
type widgetFlags struct {
	variant       string
	subject       string
	hash          string
	update        string
	verify        string
	descriptionID string
}

func (f *widgetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.variant, "variant", "document", "document, manuscript or upload-form")
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject id for document and manuscript pages")
	cmd.Flags().StringVar(&f.hash, "hash", "", "content hash for upload-form pages")
	cmd.Flags().StringVar(&f.update, "update", "journalUpdate", "update URL component")
	cmd.Flags().StringVar(&f.verify, "verify", "journalVerifyAndRefresh", "verify URL component")
	cmd.Flags().StringVar(&f.descriptionID, "description-id", headless.DefaultDescriptionID, "description element id")
}

func (f *widgetFlags) context(uploadNeeded bool) controller.Context {
	return controller.Context{
		SubjectID:             f.subject,
		Hash:                  f.hash,
		UpdateURLComponent:    f.update,
		VerifyURLComponent:    f.verify,
		DescriptionControlID:  f.descriptionID,
		InitialIsUploadNeeded: uploadNeeded,
	}
}

func (f *widgetFlags) open(cmd *cobra.Command, uploadNeeded bool) (*headless.Session, error) {
	v, err := controller.VariantByName(f.variant)
	if err != nil {
		return nil, err
	}
	return headless.Open(cmd.Context(), newClient(), f.context(uploadNeeded), v, logger.With("command", cmd.Name()))
}

func printReport(w io.Writer, r headless.Report) error {
	fmt.Fprintf(w, "alert:       %s\n", r.Class)
	fmt.Fprintf(w, "message:     %s\n", r.Text)
	fmt.Fprintf(w, "state:       %s\n", r.State)
	if r.Description != "" {
		fmt.Fprintf(w, "description: %s\n", r.Description)
	}
	if r.Failed() {
		return errAlert
	}
	return nil
}
