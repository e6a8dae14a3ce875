//go:build js && wasm

// Command portalwasm exposes the upload/verify controller to portal pages.
// Pages call the registered globals with the context objects their templates
// already emit:
//
//	linkManageDocument(context)
//	linkManageManuscript(context)
//	linkUploadForm(theHash, context)
package main

import (
	"context"
	"strings"
	"syscall/js"

	"github.com/harrylevesque/docverify/internal/controller"
	"github.com/harrylevesque/docverify/internal/dom"
	"github.com/harrylevesque/docverify/internal/transport"
	"github.com/harrylevesque/docverify/internal/utils"
)

// console forwards log lines to console.log.
type console struct{}

func (console) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("log", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func main() {
	level := "info"
	if l := js.Global().Get("VERIFY_LOG_LEVEL"); l.Type() == js.TypeString {
		level = l.String()
	}
	logger := utils.NewLogger(console{}, level)
	origin := js.Global().Get("location").Get("origin").String()
	client := transport.NewClient(origin, transport.WithLogger(logger))

	l := &linker{client: client, logger: logger}
	js.Global().Set("linkManageDocument", js.FuncOf(func(this js.Value, args []js.Value) any {
		return l.link(controller.Document, "", arg(args, 0))
	}))
	js.Global().Set("linkManageManuscript", js.FuncOf(func(this js.Value, args []js.Value) any {
		return l.link(controller.Manuscript, "", arg(args, 0))
	}))
	js.Global().Set("linkUploadForm", js.FuncOf(func(this js.Value, args []js.Value) any {
		return l.link(controller.UploadForm, stringArg(args, 0), arg(args, 1))
	}))
	logger.Debug("portal controller ready", "origin", origin)

	select {}
}

type linker struct {
	client controller.Poster
	logger *utils.Logger
}

// link binds a controller and returns undefined, or the error text when the
// page is missing something the variant needs.
func (l *linker) link(v controller.Variant, hash string, jsCtx js.Value) any {
	cx := controller.ContextFromPage(fieldsOf(jsCtx))
	cx.Hash = hash
	c, err := controller.Bind(context.Background(), handlesFrom(jsCtx), l.client, cx, v, controller.WithLogger(l.logger))
	if err != nil {
		l.logger.Error("link failed", "variant", v.Name, "error", err)
		return err.Error()
	}
	l.logger.Debug("linked", "variant", v.Name, "state", c.State().String())
	return js.Undefined()
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

func stringArg(args []js.Value, i int) string {
	if a := arg(args, i); a.Type() == js.TypeString {
		return a.String()
	}
	return ""
}

// fieldsOf copies the own string, boolean and number properties of v.
func fieldsOf(v js.Value) map[string]any {
	fields := map[string]any{}
	if v.Type() != js.TypeObject {
		return fields
	}
	keys := js.Global().Get("Object").Call("keys", v)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		switch f := v.Get(k); f.Type() {
		case js.TypeString:
			fields[k] = f.String()
		case js.TypeBoolean:
			fields[k] = f.Bool()
		case js.TypeNumber:
			fields[k] = f.Float()
		}
	}
	return fields
}

// handlesFrom maps element handles passed in the context onto the default
// selectors. Upload-form pages pass every element this way.
func handlesFrom(v js.Value) dom.Handles {
	h := dom.Handles{}
	if v.Type() != js.TypeObject {
		return h
	}
	s := controller.DefaultSelectors()
	for key, sel := range map[string]string{
		"alertControl":        s.Alert,
		"inputFileControl":    s.UploadTrigger,
		"verifyButtonControl": s.VerifyTrigger,
		"uploadFormControl":   s.UploadControl,
		"verifyControl":       s.VerifyControl,
	} {
		if e := v.Get(key); e.Type() == js.TypeObject {
			h[sel] = e
		}
	}
	return h
}
