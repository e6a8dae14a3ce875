package models

// UIState is the two-valued state of an upload/verify widget.
type UIState int

const (
	// UploadNeeded means the subject still requires a file upload.
	UploadNeeded UIState = iota
	// VerificationNeeded means a file is present and can be verified.
	VerificationNeeded
)

func (s UIState) String() string {
	switch s {
	case UploadNeeded:
		return "upload-needed"
	case VerificationNeeded:
		return "verification-needed"
	default:
		return "unknown"
	}
}

// StateOf maps the server's UploadNeeded flag onto a UIState.
func StateOf(uploadNeeded bool) UIState {
	if uploadNeeded {
		return UploadNeeded
	}
	return VerificationNeeded
}

// ServerResponse is the JSON body returned by the id-addressed update and
// verify endpoints, and by the manuscript update endpoint.
type ServerResponse struct {
	Message      string
	IsWarning    bool
	UploadNeeded bool
	// Description is nil when the field is absent from the body.
	Description *string `json:",omitempty"`
}

// VerifyRequest is posted to the id-addressed verify endpoint.
type VerifyRequest struct {
	Description string
}
