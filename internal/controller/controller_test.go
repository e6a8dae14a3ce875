package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/harrylevesque/docverify/internal/dom"
	"github.com/harrylevesque/docverify/internal/models"
	"github.com/harrylevesque/docverify/internal/testutil"
	"github.com/harrylevesque/docverify/internal/transport"
)

func documentContext() Context {
	return Context{
		SubjectID:            "j1",
		UpdateURLComponent:   "journalUpdate",
		VerifyURLComponent:   "journalVerifyAndRefresh",
		DescriptionControlID: testutil.Description,
	}
}

func bind(t *testing.T, b *testutil.Backend, cx Context, v Variant) (*Controller, *dom.Page) {
	t.Helper()
	page := testutil.NewWidgetPage()
	c, err := Bind(context.Background(), page, transport.NewClient(b.URL), cx, v)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	return c, page
}

func selectFile(t *testing.T, page *dom.Page, files ...dom.File) {
	t.Helper()
	if err := page.Dispatch(testutil.UploadTrigger, dom.Event{Type: dom.EventChange, Files: files}); err != nil {
		t.Fatalf("Dispatch change failed: %v", err)
	}
}

func clickVerify(t *testing.T, page *dom.Page) {
	t.Helper()
	if err := page.Dispatch(testutil.VerifyTrigger, dom.Event{Type: dom.EventClick}); err != nil {
		t.Fatalf("Dispatch click failed: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestBind_AppliesInitialState(t *testing.T) {
	b := testutil.NewBackend(t)

	cx := documentContext()
	cx.InitialIsUploadNeeded = true
	c, page := bind(t, b, cx, Document)
	testutil.AssertPanels(t, page, true)
	if c.State() != models.UploadNeeded {
		t.Errorf("Expected state %v, got %v", models.UploadNeeded, c.State())
	}
	if n := page.Node(testutil.UploadTrigger).ListenerCount(dom.EventChange); n != 1 {
		t.Errorf("Expected 1 change listener, got %d", n)
	}
	if n := page.Node(testutil.VerifyTrigger).ListenerCount(dom.EventClick); n != 1 {
		t.Errorf("Expected 1 click listener, got %d", n)
	}

	cx.InitialIsUploadNeeded = false
	c, page = bind(t, b, cx, Document)
	testutil.AssertPanels(t, page, false)
	if c.State() != models.VerificationNeeded {
		t.Errorf("Expected state %v, got %v", models.VerificationNeeded, c.State())
	}
}

func TestBind_InitialError(t *testing.T) {
	b := testutil.NewBackend(t)

	cx := documentContext()
	cx.HasInitialError = true
	cx.InitialError = "Removed document because of hash mismatch"
	cx.InitialIsUploadNeeded = true
	_, page := bind(t, b, cx, Document)

	testutil.AssertAlert(t, page, ClassError, "Removed document because of hash mismatch")
}

func TestBind_Validation(t *testing.T) {
	client := transport.NewClient("http://localhost")
	page := testutil.NewWidgetPage()

	tests := []struct {
		name    string
		cx      Context
		variant Variant
		want    error
	}{
		{"missing subject", Context{UpdateURLComponent: "journalUpdate"}, Manuscript, ErrMissingSubject},
		{"missing update component", Context{SubjectID: "j1"}, Document, ErrMissingURLComponent},
		{"missing verify component", Context{SubjectID: "j1", UpdateURLComponent: "u", DescriptionControlID: testutil.Description}, Document, ErrMissingURLComponent},
		{"missing description id", Context{SubjectID: "j1", UpdateURLComponent: "u", VerifyURLComponent: "v"}, Document, ErrMissingControlID},
		{"missing download id", Context{SubjectID: "m1", UpdateURLComponent: "manuscriptUpdate"}, Manuscript, ErrMissingControlID},
		{"missing hash", Context{}, UploadForm, ErrMissingHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(context.Background(), page, client, tt.cx, tt.variant)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBind_MissingElement(t *testing.T) {
	page := dom.NewPage(testutil.UploadTrigger, testutil.UploadControl, testutil.VerifyControl)
	_, err := Bind(context.Background(), page, transport.NewClient("http://localhost"), Context{Hash: "abc"}, UploadForm)
	if !errors.Is(err, dom.ErrElementNotFound) {
		t.Errorf("Expected ErrElementNotFound, got %v", err)
	}
}

func TestSetUploadNeeded_ExactlyOnePanelVisible(t *testing.T) {
	b := testutil.NewBackend(t)
	c, page := bind(t, b, documentContext(), Document)

	for _, needed := range []bool{true, true, false, false, true} {
		c.SetUploadNeeded(needed)
		testutil.AssertPanels(t, page, needed)
		if want := models.StateOf(needed); c.State() != want {
			t.Errorf("Expected state %v, got %v", want, c.State())
		}
	}
}

func TestAddFile_CancelledDialogSendsNothing(t *testing.T) {
	b := testutil.NewBackend(t)
	c, page := bind(t, b, documentContext(), Document)

	selectFile(t, page)
	c.Wait()

	if calls := b.Calls(); len(calls) != 0 {
		t.Errorf("Expected no requests, got %d", len(calls))
	}
	if classes := page.Node(testutil.Alert).Classes(); len(classes) != 0 {
		t.Errorf("Expected untouched alert, got classes %v", classes)
	}
}

func TestUpload_Success(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalUpdate/j1", testutil.JSONReply(http.StatusOK, models.ServerResponse{
		Message:     "OK",
		Description: strPtr("A journal about things"),
	}))

	cx := documentContext()
	cx.InitialIsUploadNeeded = true
	c, page := bind(t, b, cx, Document)

	selectFile(t, page, dom.NewFile("description.txt", []byte("A journal about things")))
	c.Wait()

	testutil.AssertAlert(t, page, ClassSuccess, "OK")
	testutil.AssertPanels(t, page, false)
	if got := page.Node(testutil.Description).Content(); got != "A journal about things" {
		t.Errorf("Expected description to be updated, got %q", got)
	}

	calls := b.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(calls))
	}
	call := calls[0]
	if call.Path != "/journalUpdate/j1" {
		t.Errorf("Expected path /journalUpdate/j1, got %s", call.Path)
	}
	if call.FileField != "file" || call.FileName != "description.txt" {
		t.Errorf("Expected file field 'file' named description.txt, got %q %q", call.FileField, call.FileName)
	}
	if string(call.FileData) != "A journal about things" {
		t.Errorf("Unexpected uploaded data %q", call.FileData)
	}
	if call.RequestID == "" {
		t.Error("Expected a request id header")
	}
}

func TestUpload_WarningReopensUpload(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalUpdate/j1", testutil.JSONReply(http.StatusOK, models.ServerResponse{
		Message:      "Bad format",
		IsWarning:    true,
		UploadNeeded: true,
	}))

	c, page := bind(t, b, documentContext(), Document)
	testutil.AssertPanels(t, page, false)

	if err := c.Upload(context.Background(), dom.NewFile("d.txt", []byte("x"))); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	testutil.AssertAlert(t, page, ClassError, "Bad format")
	testutil.AssertPanels(t, page, true)
}

func TestUpload_ServerErrorKeepsState(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalUpdate/j1", testutil.TextReply(http.StatusInternalServerError, "server error"))

	for _, initial := range []bool{true, false} {
		cx := documentContext()
		cx.InitialIsUploadNeeded = initial
		c, page := bind(t, b, cx, Document)
		page.Node(testutil.Description).SetContent("kept")

		if err := c.Upload(context.Background(), dom.NewFile("d.txt", []byte("x"))); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}

		testutil.AssertAlert(t, page, ClassError, "server error")
		testutil.AssertPanels(t, page, initial)
		if got := page.Node(testutil.Description).Content(); got != "kept" {
			t.Errorf("Expected description untouched, got %q", got)
		}
	}
}

func TestUpload_UnreadableSuccessBody(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalUpdate/j1", testutil.TextReply(http.StatusOK, "<html>proxy page</html>"))

	cx := documentContext()
	cx.InitialIsUploadNeeded = true
	c, page := bind(t, b, cx, Document)

	if err := c.Upload(context.Background(), dom.NewFile("d.txt", []byte("x"))); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	testutil.AssertAlert(t, page, ClassError, "<html>proxy page</html>")
	testutil.AssertPanels(t, page, true)
}

func TestUpload_TransportFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	url := b.URL
	b.Close()

	page := testutil.NewWidgetPage()
	c, err := Bind(context.Background(), page, transport.NewClient(url), documentContext(), Document)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := c.Upload(context.Background(), dom.NewFile("d.txt", []byte("x"))); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	alert := page.Node(testutil.Alert)
	if !alert.HasClass(ClassError) || alert.HasClass(ClassSuccess) {
		t.Errorf("Expected error class only, got %v", alert.Classes())
	}
	if alert.Content() == "" {
		t.Error("Expected the transport error text in the alert")
	}
	testutil.AssertPanels(t, page, false)
}

type brokenFile struct{}

func (brokenFile) Name() string                 { return "broken.txt" }
func (brokenFile) Open() (io.ReadCloser, error) { return nil, errors.New("permission denied") }

func TestUpload_UnopenableFile(t *testing.T) {
	b := testutil.NewBackend(t)
	c, page := bind(t, b, documentContext(), Document)

	err := c.Upload(context.Background(), brokenFile{})
	if err == nil {
		t.Fatal("Expected an error for an unopenable file")
	}
	testutil.AssertAlert(t, page, ClassError, err.Error())
	if calls := b.Calls(); len(calls) != 0 {
		t.Errorf("Expected no requests, got %d", len(calls))
	}
}

func TestVerify_SendsDescription(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalVerifyAndRefresh/j1", testutil.JSONReply(http.StatusOK, models.ServerResponse{
		Message:     "Verification successful, description was correct",
		Description: strPtr("Tom & Jerry <3"),
	}))

	c, page := bind(t, b, documentContext(), Document)
	page.Node(testutil.Description).SetContent("Tom & Jerry <3")

	clickVerify(t, page)
	c.Wait()

	testutil.AssertAlert(t, page, ClassSuccess, "Verification successful, description was correct")
	testutil.AssertPanels(t, page, false)

	calls := b.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(calls))
	}
	var req models.VerifyRequest
	if err := json.Unmarshal(calls[0].Body, &req); err != nil {
		t.Fatalf("Failed to decode verify body: %v", err)
	}
	if req.Description != "Tom & Jerry <3" {
		t.Errorf("Expected description to round trip, got %q", req.Description)
	}
	if calls[0].ContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", calls[0].ContentType)
	}
}

func TestVerify_UploadNeededSwitchesPanel(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalVerifyAndRefresh/j1", testutil.JSONReply(http.StatusOK, models.ServerResponse{
		Message:      "Please upload the description",
		UploadNeeded: true,
		IsWarning:    true,
		Description:  strPtr(""),
	}))

	c, page := bind(t, b, documentContext(), Document)
	page.Node(testutil.Description).SetContent("stale")

	if err := c.Verify(context.Background()); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	testutil.AssertAlert(t, page, ClassError, "Please upload the description")
	testutil.AssertPanels(t, page, true)
	if got := page.Node(testutil.Description).Content(); got != "" {
		t.Errorf("Expected description cleared, got %q", got)
	}
}

func TestVerify_ServerErrorKeepsState(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/journalVerifyAndRefresh/j1", testutil.TextReply(http.StatusNotFound, "Journal not found: j1"))

	c, page := bind(t, b, documentContext(), Document)
	if err := c.Verify(context.Background()); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	testutil.AssertAlert(t, page, ClassError, "Journal not found: j1")
	testutil.AssertPanels(t, page, false)
}

func TestUploadForm_UploadRendersRawBody(t *testing.T) {
	b := testutil.NewBackend(t)
	receipt := testutil.JSONReply(http.StatusOK, map[string]string{"Message": "stored", "Text": "hello"})
	b.Reply("/upload/abc123", receipt)

	c, page := bind(t, b, Context{Hash: "abc123", InitialIsUploadNeeded: true}, UploadForm)
	testutil.AssertPanels(t, page, true)

	selectFile(t, page, dom.NewFile("doc.pdf", []byte("%PDF")))
	c.Wait()

	testutil.AssertAlert(t, page, ClassSuccess, receipt.Body)
	testutil.AssertPanels(t, page, false)

	calls := b.Calls()
	if len(calls) != 1 || calls[0].Vars["hash"] != "abc123" {
		t.Fatalf("Expected one upload for hash abc123, got %+v", calls)
	}
}

func TestUploadForm_UploadFailureKeepsState(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/upload/abc123", testutil.TextReply(http.StatusBadRequest, "Uploaded file does not have hash abc123"))

	c, page := bind(t, b, Context{Hash: "abc123", InitialIsUploadNeeded: true}, UploadForm)
	if err := c.Upload(context.Background(), dom.NewFile("doc.pdf", []byte("%PDF"))); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	testutil.AssertAlert(t, page, ClassError, "Uploaded file does not have hash abc123")
	testutil.AssertPanels(t, page, true)
}

func TestUploadForm_VerifyFailureReopensUpload(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/verify/abc123", testutil.TextReply(http.StatusInternalServerError, "server error"))

	c, page := bind(t, b, Context{Hash: "abc123"}, UploadForm)
	testutil.AssertPanels(t, page, false)

	clickVerify(t, page)
	c.Wait()

	testutil.AssertAlert(t, page, ClassError, "server error")
	testutil.AssertPanels(t, page, true)

	calls := b.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(calls))
	}
	if len(calls[0].Body) != 0 {
		t.Errorf("Expected an empty verify body, got %q", calls[0].Body)
	}
}

func TestUploadForm_VerifySuccessKeepsState(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/verify/abc123", testutil.TextReply(http.StatusOK, "Document verified"))

	c, page := bind(t, b, Context{Hash: "abc123"}, UploadForm)
	if err := c.Verify(context.Background()); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	testutil.AssertAlert(t, page, ClassSuccess, "Document verified")
	testutil.AssertPanels(t, page, false)
}

func TestManuscript_TogglesDownload(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/manuscriptUpdate/m1", testutil.JSONReply(http.StatusOK, models.ServerResponse{
		Message: "Manuscript uploaded successfully!",
	}))

	cx := Context{
		SubjectID:             "m1",
		UpdateURLComponent:    "manuscriptUpdate",
		DownloadControlID:     testutil.Download,
		InitialIsUploadNeeded: true,
	}
	c, page := bind(t, b, cx, Manuscript)

	if !page.Node(testutil.Download).Disabled() {
		t.Error("Expected download disabled while upload is needed")
	}
	if n := page.Node(testutil.VerifyTrigger).ListenerCount(dom.EventClick); n != 0 {
		t.Errorf("Expected no verify listener, got %d", n)
	}

	selectFile(t, page, dom.NewFile("paper.pdf", []byte("%PDF")))
	c.Wait()

	testutil.AssertAlert(t, page, ClassSuccess, "Manuscript uploaded successfully!")
	if page.Node(testutil.Download).Disabled() {
		t.Error("Expected download enabled after a successful upload")
	}
	if page.Node(testutil.UploadControl).Hidden() {
		t.Error("Expected the upload control to stay visible")
	}
	if err := c.Verify(context.Background()); !errors.Is(err, ErrVerifyUnsupported) {
		t.Errorf("Expected ErrVerifyUnsupported, got %v", err)
	}
}

func TestShowResponse_SingleClass(t *testing.T) {
	b := testutil.NewBackend(t)
	c, page := bind(t, b, documentContext(), Document)

	c.ShowResponse(ClassSuccess, "first")
	c.ShowResponse(ClassError, "second")
	testutil.AssertAlert(t, page, ClassError, "second")

	c.ShowResponse(ClassSuccess, "third")
	c.ShowResponse(ClassSuccess, "fourth")
	testutil.AssertAlert(t, page, ClassSuccess, "fourth")
}

func TestShowResponse_RejectsUnknownClass(t *testing.T) {
	b := testutil.NewBackend(t)
	c, page := bind(t, b, documentContext(), Document)

	if err := c.ShowResponse("warning", "careful"); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("Expected ErrUnknownClass, got %v", err)
	}
	if err := c.ShowResponse(ClassSuccess, "done"); err != nil {
		t.Fatalf("ShowResponse failed: %v", err)
	}
	testutil.AssertAlert(t, page, ClassSuccess, "done")
}

func TestUpload_AdapterUnknownClassRendersError(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/upload/abc123", testutil.TextReply(http.StatusOK, "stored"))

	v := UploadForm
	v.UploadAdapter = func(body []byte) (Outcome, error) {
		return Outcome{Class: "warning", Text: string(body)}, nil
	}
	c, page := bind(t, b, Context{Hash: "abc123", InitialIsUploadNeeded: true}, v)

	selectFile(t, page, dom.NewFile("doc.pdf", []byte("%PDF")))
	c.Wait()

	testutil.AssertAlert(t, page, ClassError, "stored")
}

func waitForCalls(t *testing.T, b *testutil.Backend, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(b.Calls()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %d requests, got %d", n, len(b.Calls()))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUpload_NewerActionSupersedesOlder(t *testing.T) {
	b := testutil.NewBackend(t)
	hold := make(chan struct{})
	defer close(hold)
	b.Reply("/journalUpdate/j1",
		testutil.Reply{Status: http.StatusOK, Body: `{"Message":"first"}`, Hold: hold},
		testutil.JSONReply(http.StatusOK, models.ServerResponse{Message: "second"}),
	)

	cx := documentContext()
	cx.InitialIsUploadNeeded = true
	c, page := bind(t, b, cx, Document)

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- c.Upload(context.Background(), dom.NewFile("a.txt", []byte("a")))
	}()
	waitForCalls(t, b, 1)

	if err := c.Upload(context.Background(), dom.NewFile("b.txt", []byte("b"))); err != nil {
		t.Fatalf("Second upload failed: %v", err)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Expected first upload to be superseded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("First upload did not return after being superseded")
	}

	testutil.AssertAlert(t, page, ClassSuccess, "second")
	testutil.AssertPanels(t, page, false)
}
