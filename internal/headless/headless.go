// Package headless drives a controller against an in-memory page, firing the
// same events a browser would, and reports what the page shows afterwards.
package headless

import (
	"context"
	"fmt"

	"github.com/harrylevesque/docverify/internal/controller"
	"github.com/harrylevesque/docverify/internal/dom"
	"github.com/harrylevesque/docverify/internal/utils"
)

// Element ids used when the context leaves them unset.
const (
	DefaultDescriptionID = "descriptionId"
	DefaultDownloadID    = "downloadId"
)

// Report is the visible outcome of an action.
type Report struct {
	Class       string
	Text        string
	State       string
	Description string
	// DownloadEnabled is only meaningful for the manuscript variant.
	DownloadEnabled bool
}

// Failed reports whether the alert is error styled.
func (r Report) Failed() bool {
	return r.Class == controller.ClassError
}

// Session is a controller bound to its own page.
type Session struct {
	page    *dom.Page
	ctrl    *controller.Controller
	variant controller.Variant
	cx      controller.Context
}

// Open builds a page with every element v needs and binds a controller to
// it. Actions run under ctx.
func Open(ctx context.Context, client controller.Poster, cx controller.Context, v controller.Variant, logger *utils.Logger) (*Session, error) {
	cx.Selectors = controller.DefaultSelectors()
	if v.Verify && v.Addressing == controller.ByID && cx.DescriptionControlID == "" {
		cx.DescriptionControlID = DefaultDescriptionID
	}
	if v.Toggle == controller.ToggleDownload && cx.DownloadControlID == "" {
		cx.DownloadControlID = DefaultDownloadID
	}

	page := dom.NewPage()
	s := cx.Selectors
	for _, sel := range []string{s.UploadTrigger, s.VerifyTrigger, s.UploadControl, s.VerifyControl, s.Alert} {
		id, err := dom.ParseIDSelector(sel)
		if err != nil {
			return nil, err
		}
		page.Add(id)
	}
	for _, id := range []string{cx.DescriptionControlID, cx.DownloadControlID} {
		if id != "" {
			page.Add(id)
		}
	}

	ctrl, err := controller.Bind(ctx, page, client, cx, v, controller.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Session{page: page, ctrl: ctrl, variant: v, cx: cx}, nil
}

// Upload selects f in the upload trigger and waits for the response.
func (s *Session) Upload(f dom.File) (Report, error) {
	id, _ := dom.ParseIDSelector(s.cx.Selectors.UploadTrigger)
	if err := s.page.Dispatch(id, dom.Event{Type: dom.EventChange, Files: []dom.File{f}}); err != nil {
		return Report{}, err
	}
	s.ctrl.Wait()
	return s.Report(), nil
}

// Verify optionally fills the description field, clicks the verify trigger
// and waits for the response.
func (s *Session) Verify(description *string) (Report, error) {
	if !s.variant.Verify {
		return Report{}, fmt.Errorf("%s: %w", s.variant.Name, controller.ErrVerifyUnsupported)
	}
	if description != nil && s.cx.DescriptionControlID != "" {
		s.page.Node(s.cx.DescriptionControlID).SetContent(*description)
	}
	id, _ := dom.ParseIDSelector(s.cx.Selectors.VerifyTrigger)
	if err := s.page.Dispatch(id, dom.Event{Type: dom.EventClick}); err != nil {
		return Report{}, err
	}
	s.ctrl.Wait()
	return s.Report(), nil
}

// Report reads the page as it is now.
func (s *Session) Report() Report {
	alertID, _ := dom.ParseIDSelector(s.cx.Selectors.Alert)
	alert := s.page.Node(alertID)
	r := Report{
		Text:  alert.Content(),
		State: s.ctrl.State().String(),
	}
	switch {
	case alert.HasClass(controller.ClassError):
		r.Class = controller.ClassError
	case alert.HasClass(controller.ClassSuccess):
		r.Class = controller.ClassSuccess
	}
	if id := s.cx.DescriptionControlID; id != "" {
		r.Description = s.page.Node(id).Content()
	}
	if id := s.cx.DownloadControlID; id != "" {
		r.DownloadEnabled = !s.page.Node(id).Disabled()
	}
	return r
}
