package controller

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrMissingSubject      = errors.New("subject id is required")
	ErrMissingHash         = errors.New("content hash is required")
	ErrMissingURLComponent = errors.New("url component is required")
	ErrMissingControlID    = errors.New("control id is required")
)

// Selectors locate the fixed elements of the widget.
type Selectors struct {
	UploadTrigger string
	VerifyTrigger string
	UploadControl string
	VerifyControl string
	Alert         string
}

// DefaultSelectors are the ids the portal templates emit.
func DefaultSelectors() Selectors {
	return Selectors{
		UploadTrigger: "#uploadTrigger",
		VerifyTrigger: "#verifyTrigger",
		UploadControl: "#uploadControl",
		VerifyControl: "#verifyControl",
		Alert:         "#alert",
	}
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	if s.UploadTrigger == "" {
		s.UploadTrigger = d.UploadTrigger
	}
	if s.VerifyTrigger == "" {
		s.VerifyTrigger = d.VerifyTrigger
	}
	if s.UploadControl == "" {
		s.UploadControl = d.UploadControl
	}
	if s.VerifyControl == "" {
		s.VerifyControl = d.VerifyControl
	}
	if s.Alert == "" {
		s.Alert = d.Alert
	}
	return s
}

// Context is the page-supplied configuration. It is copied at bind time and
// never changes afterwards.
type Context struct {
	SubjectID string
	// Hash addresses the subject for ByHash variants.
	Hash                 string
	UpdateURLComponent   string
	VerifyURLComponent   string
	DescriptionControlID string
	DownloadControlID    string

	HasInitialError       bool
	InitialError          string
	InitialIsUploadNeeded bool

	// Selectors default to DefaultSelectors field by field.
	Selectors Selectors
}

func (cx Context) validate(v Variant) error {
	switch v.Addressing {
	case ByID:
		if cx.SubjectID == "" {
			return ErrMissingSubject
		}
		if cx.UpdateURLComponent == "" {
			return fmt.Errorf("%w: update", ErrMissingURLComponent)
		}
		if v.Verify {
			if cx.VerifyURLComponent == "" {
				return fmt.Errorf("%w: verify", ErrMissingURLComponent)
			}
			if cx.DescriptionControlID == "" {
				return fmt.Errorf("%w: description", ErrMissingControlID)
			}
		}
	case ByHash:
		if cx.Hash == "" {
			return ErrMissingHash
		}
	}
	if v.Toggle == ToggleDownload && cx.DownloadControlID == "" {
		return fmt.Errorf("%w: download", ErrMissingControlID)
	}
	return nil
}

func (cx Context) uploadPath(v Variant) string {
	if v.Addressing == ByHash {
		return "/upload/" + url.PathEscape(cx.Hash)
	}
	return "/" + url.PathEscape(cx.UpdateURLComponent) + "/" + url.PathEscape(cx.SubjectID)
}

func (cx Context) verifyPath(v Variant) string {
	if v.Addressing == ByHash {
		return "/verify/" + url.PathEscape(cx.Hash)
	}
	return "/" + url.PathEscape(cx.VerifyURLComponent) + "/" + url.PathEscape(cx.SubjectID)
}
