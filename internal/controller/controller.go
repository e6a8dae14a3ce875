// Package controller binds an upload/verify widget to the document backend.
//
// A Controller owns a two-valued state (upload needed or verification
// needed), issues one POST per user gesture, and renders each response into
// the alert area and the panel visibility. One Controller type serves every
// page kind; the differences live in a Variant.
//
// Triggering a new action while one is in flight cancels the older request,
// and only the most recent action's response is ever applied.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/harrylevesque/docverify/internal/dom"
	"github.com/harrylevesque/docverify/internal/models"
	"github.com/harrylevesque/docverify/internal/transport"
	"github.com/harrylevesque/docverify/internal/utils"
)

// Alert classes. Exactly one is present on the alert after any render.
const (
	ClassSuccess = "success"
	ClassError   = "error"
)

var (
	// ErrSuperseded is returned by an action whose response arrived after a
	// newer action started. Its response is not applied.
	ErrSuperseded = errors.New("superseded by a newer action")
	// ErrVerifyUnsupported is returned by Verify on variants without one.
	ErrVerifyUnsupported = errors.New("variant has no verify action")
	// ErrUnknownClass is returned by ShowResponse for a class other than
	// ClassSuccess or ClassError.
	ErrUnknownClass = errors.New("unknown alert class")
)

func knownClass(class string) bool {
	return class == ClassSuccess || class == ClassError
}

// Poster is the transport the controller needs.
type Poster interface {
	PostMultipart(ctx context.Context, path, field, filename string, body io.Reader) transport.Result
	PostJSON(ctx context.Context, path string, v any) transport.Result
	Post(ctx context.Context, path string) transport.Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *utils.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller is a bound upload/verify widget.
type Controller struct {
	variant Variant
	cx      Context
	client  Poster
	logger  *utils.Logger
	// base is the parent context of actions started by listeners.
	base context.Context

	uploadTrigger dom.Element
	verifyTrigger dom.Element
	uploadControl dom.Element
	verifyControl dom.Element
	alert         dom.Element
	description   dom.Element
	download      dom.Element

	mu         sync.Mutex
	state      models.UIState
	generation uint64
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

// Bind resolves the widget's elements in doc, applies the initial error and
// state from cx, and registers the listeners. Actions started by listeners
// run under ctx.
func Bind(ctx context.Context, doc dom.Document, client Poster, cx Context, v Variant, opts ...Option) (*Controller, error) {
	if err := cx.validate(v); err != nil {
		return nil, fmt.Errorf("bind %s: %w", v.Name, err)
	}
	cx.Selectors = cx.Selectors.withDefaults()
	c := &Controller{
		variant: v,
		cx:      cx,
		client:  client,
		logger:  utils.NopLogger(),
		base:    ctx,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("variant", v.Name)

	if err := c.resolve(doc); err != nil {
		return nil, fmt.Errorf("bind %s: %w", v.Name, err)
	}
	c.logger.Debug("binding controller", "subject", cx.SubjectID, "hash", cx.Hash)

	if cx.HasInitialError {
		c.alert.SetContent(cx.InitialError)
		c.alert.AddClass(ClassError)
	}
	c.uploadTrigger.AddEventListener(dom.EventChange, func(ev dom.Event) {
		c.dispatch("addFile", func(ctx context.Context) error { return c.AddFile(ctx, ev) })
	})
	if v.Verify {
		c.verifyTrigger.AddEventListener(dom.EventClick, func(dom.Event) {
			c.dispatch("verify", c.Verify)
		})
	}
	c.SetUploadNeeded(cx.InitialIsUploadNeeded)
	return c, nil
}

func (c *Controller) resolve(doc dom.Document) error {
	type target struct {
		selector string
		dst      *dom.Element
	}
	s := c.cx.Selectors
	targets := []target{
		{s.UploadTrigger, &c.uploadTrigger},
		{s.Alert, &c.alert},
	}
	switch c.variant.Toggle {
	case TogglePanels:
		targets = append(targets, target{s.UploadControl, &c.uploadControl}, target{s.VerifyControl, &c.verifyControl})
	case ToggleDownload:
		targets = append(targets, target{dom.IDSelector(c.cx.DownloadControlID), &c.download})
	}
	if c.variant.Verify {
		targets = append(targets, target{s.VerifyTrigger, &c.verifyTrigger})
	}
	if c.cx.DescriptionControlID != "" {
		targets = append(targets, target{dom.IDSelector(c.cx.DescriptionControlID), &c.description})
	}
	for _, t := range targets {
		el, err := doc.QuerySelector(t.selector)
		if err != nil {
			return err
		}
		*t.dst = el
	}
	return nil
}

// dispatch runs an action off the event source's goroutine.
func (c *Controller) dispatch(name string, action func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := action(c.base)
		switch {
		case err == nil:
		case errors.Is(err, ErrSuperseded):
			c.logger.Debug("action superseded", "action", name)
		default:
			c.logger.Warn("action failed", "action", name, "error", err)
		}
	}()
}

// Wait blocks until every action started by a listener has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// State returns the current state.
func (c *Controller) State() models.UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetUploadNeeded switches the visible controls. It is idempotent.
func (c *Controller) SetUploadNeeded(needed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setUploadNeeded(needed)
}

func (c *Controller) setUploadNeeded(needed bool) {
	c.logger.Debug("setUploadNeeded", "needed", needed)
	c.state = models.StateOf(needed)
	switch c.variant.Toggle {
	case TogglePanels:
		c.uploadControl.SetHidden(!needed)
		c.verifyControl.SetHidden(needed)
	case ToggleDownload:
		c.download.SetDisabled(needed)
	}
}

// ShowResponse renders text into the alert with class as its only style.
// The alert is left untouched when class is not ClassSuccess or ClassError.
func (c *Controller) ShowResponse(class, text string) error {
	if !knownClass(class) {
		return fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showResponse(class, text)
	return nil
}

func (c *Controller) showResponse(class, text string) {
	c.alert.RemoveClass(ClassSuccess)
	c.alert.RemoveClass(ClassError)
	c.alert.AddClass(class)
	c.alert.SetContent(text)
}

// AddFile uploads the first file of a change event. An event without files,
// as sent when the file dialog is cancelled, does nothing.
func (c *Controller) AddFile(ctx context.Context, ev dom.Event) error {
	if len(ev.Files) == 0 || ev.Files[0] == nil {
		return nil
	}
	return c.Upload(ctx, ev.Files[0])
}

// Upload posts f to the variant's upload endpoint and applies the response.
func (c *Controller) Upload(ctx context.Context, f dom.File) error {
	path := c.cx.uploadPath(c.variant)
	c.logger.Debug("doing upload", "url", path, "file", f.Name())
	actx, gen := c.begin(ctx)

	rc, err := f.Open()
	if err != nil {
		err = fmt.Errorf("open %s: %w", f.Name(), err)
		if ferr := c.finish(gen, transport.Err{Body: err.Error(), Cause: err}, c.variant.UploadAdapter, false); ferr != nil {
			return ferr
		}
		return err
	}
	defer rc.Close()

	res := c.client.PostMultipart(actx, path, c.variant.FileField, f.Name(), rc)
	return c.finish(gen, res, c.variant.UploadAdapter, false)
}

// Verify asks the backend to verify the subject. ByID variants send the
// description field's current content; ByHash variants send no body.
func (c *Controller) Verify(ctx context.Context) error {
	if !c.variant.Verify {
		return ErrVerifyUnsupported
	}
	path := c.cx.verifyPath(c.variant)
	c.logger.Debug("doing verify", "url", path)
	actx, gen := c.begin(ctx)

	var res transport.Result
	switch c.variant.Addressing {
	case ByID:
		c.mu.Lock()
		req := models.VerifyRequest{Description: c.description.Content()}
		c.mu.Unlock()
		res = c.client.PostJSON(actx, path, req)
	case ByHash:
		res = c.client.Post(actx, path)
	}
	return c.finish(gen, res, c.variant.VerifyAdapter, c.variant.ReopenUploadOnVerifyFailure)
}

// begin starts a new action, cancelling the one in flight.
func (c *Controller) begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.generation++
	c.cancel = cancel
	return ctx, c.generation
}

// finish applies res if gen is still the latest action.
func (c *Controller) finish(gen uint64, res transport.Result, adapt Adapter, reopenOnFailure bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	c.cancel()
	c.cancel = nil

	switch r := res.(type) {
	case transport.Ok:
		c.applyOk(r, adapt)
	case transport.Err:
		c.logger.Warn("request failed", "status", r.Status, "error", r.Cause)
		c.showResponse(ClassError, r.Body)
		if reopenOnFailure {
			c.setUploadNeeded(true)
		}
	default:
		panic(fmt.Sprintf("controller: unexpected result type %T", res))
	}
	return nil
}

func (c *Controller) applyOk(r transport.Ok, adapt Adapter) {
	out, err := adapt(r.Body)
	if err != nil {
		c.logger.Warn("unreadable response", "status", r.Status, "error", err)
		c.showResponse(ClassError, string(r.Body))
		return
	}
	if !knownClass(out.Class) {
		c.logger.Warn("adapter returned unknown class", "class", out.Class)
		out.Class = ClassError
	}
	c.showResponse(out.Class, out.Text)
	if out.Description != nil && c.description != nil {
		c.description.SetContent(*out.Description)
	}
	if out.Next != nil {
		c.setUploadNeeded(*out.Next == models.UploadNeeded)
	}
}
