package transport

import (
	"github.com/harrylevesque/docverify/internal/utils"
)

// Result is the outcome of one request: either Ok or Err. The set is closed;
// callers branch with a type switch over exactly these two.
type Result interface {
	isResult()
}

// Ok is a response with a status below 400.
type Ok struct {
	Status int
	Body   []byte
}

// Err is a response with status 400 or above, or a request that failed
// before any response arrived (Status 0, Cause set).
type Err struct {
	Status int
	Body   string
	Cause  error
}

func (Ok) isResult()  {}
func (Err) isResult() {}

func (e Err) Error() string {
	return utils.New(e.Status, e.Body).Error()
}

func (e Err) Unwrap() error { return e.Cause }
