package controller

import (
	"encoding/json"
	"fmt"

	"github.com/harrylevesque/docverify/internal/models"
)

// Addressing selects how a subject appears in request paths.
type Addressing int

const (
	// ByID routes through /{component}/{subjectId}.
	ByID Addressing = iota
	// ByHash routes through /upload/{hash} and /verify/{hash}.
	ByHash
)

// Toggle selects what SetUploadNeeded flips.
type Toggle int

const (
	// TogglePanels shows exactly one of the upload and verify panels.
	TogglePanels Toggle = iota
	// ToggleDownload disables the download control while an upload is needed.
	ToggleDownload
)

// Outcome is what a successful response renders to.
type Outcome struct {
	Class string
	Text  string
	// Description replaces the description field's content when non-nil.
	Description *string
	// Next is the state to move to; nil keeps the current one.
	Next *models.UIState
}

// Adapter turns the body of a successful response into an Outcome.
type Adapter func(body []byte) (Outcome, error)

// Variant parameterises the controller for one kind of page.
type Variant struct {
	Name       string
	Addressing Addressing
	Toggle     Toggle
	// FileField is the multipart field carrying the upload.
	FileField string
	// Verify reports whether the page has a verify trigger.
	Verify        bool
	UploadAdapter Adapter
	VerifyAdapter Adapter
	// ReopenUploadOnVerifyFailure moves back to UploadNeeded when verify
	// fails, so the user can upload again.
	ReopenUploadOnVerifyFailure bool
}

var (
	// Document drives journal description, biography and review pages.
	Document = Variant{
		Name:          "document",
		Addressing:    ByID,
		Toggle:        TogglePanels,
		FileField:     "file",
		Verify:        true,
		UploadAdapter: DecodeServerResponse,
		VerifyAdapter: DecodeServerResponse,
	}

	// Manuscript drives the manuscript page: upload only, and the download
	// link is enabled once nothing needs uploading.
	Manuscript = Variant{
		Name:          "manuscript",
		Addressing:    ByID,
		Toggle:        ToggleDownload,
		FileField:     "file",
		UploadAdapter: DecodeServerResponse,
	}

	// UploadForm drives the hash-addressed upload form.
	UploadForm = Variant{
		Name:                        "upload-form",
		Addressing:                  ByHash,
		Toggle:                      TogglePanels,
		FileField:                   "file",
		Verify:                      true,
		UploadAdapter:               RawBody(stateRef(models.VerificationNeeded)),
		VerifyAdapter:               RawBody(nil),
		ReopenUploadOnVerifyFailure: true,
	}
)

// Variants lists the presets by name.
var Variants = map[string]Variant{
	Document.Name:   Document,
	Manuscript.Name: Manuscript,
	UploadForm.Name: UploadForm,
}

// VariantByName looks up a preset.
func VariantByName(name string) (Variant, error) {
	v, ok := Variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q", name)
	}
	return v, nil
}

// DecodeServerResponse renders a models.ServerResponse: Message styled as an
// error when IsWarning is set, the description when present, and the next
// state from UploadNeeded.
func DecodeServerResponse(body []byte) (Outcome, error) {
	var resp models.ServerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Outcome{}, fmt.Errorf("decode server response: %w", err)
	}
	class := ClassSuccess
	if resp.IsWarning {
		class = ClassError
	}
	return Outcome{
		Class:       class,
		Text:        resp.Message,
		Description: resp.Description,
		Next:        stateRef(models.StateOf(resp.UploadNeeded)),
	}, nil
}

// RawBody renders the body verbatim as a success and moves to next.
func RawBody(next *models.UIState) Adapter {
	return func(body []byte) (Outcome, error) {
		return Outcome{Class: ClassSuccess, Text: string(body), Next: next}, nil
	}
}

func stateRef(s models.UIState) *models.UIState {
	return &s
}
