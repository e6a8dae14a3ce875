package testutil

import (
	"testing"

	"github.com/harrylevesque/docverify/internal/dom"
)

// Element ids of the portal widget.
const (
	UploadTrigger = "uploadTrigger"
	VerifyTrigger = "verifyTrigger"
	UploadControl = "uploadControl"
	VerifyControl = "verifyControl"
	Alert         = "alert"
	Description   = "descriptionId"
	Download      = "downloadId"
)

// NewWidgetPage returns a page with every element any variant binds to.
func NewWidgetPage() *dom.Page {
	return dom.NewPage(UploadTrigger, VerifyTrigger, UploadControl, VerifyControl, Alert, Description, Download)
}

// AssertAlert checks the alert text and that class is its only style class.
func AssertAlert(t *testing.T, page *dom.Page, class, text string) {
	t.Helper()
	alert := page.Node(Alert)
	classes := alert.Classes()
	if len(classes) != 1 || classes[0] != class {
		t.Errorf("Expected alert classes [%s], got %v", class, classes)
	}
	if got := alert.Content(); got != text {
		t.Errorf("Expected alert text %q, got %q", text, got)
	}
}

// AssertPanels checks that exactly the expected panel is visible.
func AssertPanels(t *testing.T, page *dom.Page, uploadVisible bool) {
	t.Helper()
	upload := !page.Node(UploadControl).Hidden()
	verify := !page.Node(VerifyControl).Hidden()
	if upload == verify {
		t.Fatalf("Expected exactly one visible panel, upload=%v verify=%v", upload, verify)
	}
	if upload != uploadVisible {
		t.Errorf("Expected upload panel visible=%v, got %v", uploadVisible, upload)
	}
}
