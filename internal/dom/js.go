//go:build js && wasm

package dom

import (
	"bytes"
	"fmt"
	"io"
	"syscall/js"
)

// Browser is the live page document.
type Browser struct {
	doc js.Value
}

// NewBrowser returns the global document.
func NewBrowser() *Browser {
	return &Browser{doc: js.Global().Get("document")}
}

// QuerySelector implements Document.
func (b *Browser) QuerySelector(selector string) (Element, error) {
	if _, err := ParseIDSelector(selector); err != nil {
		return nil, err
	}
	v := b.doc.Call("querySelector", selector)
	if v.IsNull() || v.IsUndefined() {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return Wrap(v), nil
}

// Handles is a Document over element handles a page already resolved, keyed
// by selector. It falls back to the live document for anything else.
type Handles map[string]js.Value

func (h Handles) QuerySelector(selector string) (Element, error) {
	if v, ok := h[selector]; ok && !v.IsNull() && !v.IsUndefined() {
		return Wrap(v), nil
	}
	return NewBrowser().QuerySelector(selector)
}

type jsElement struct {
	v js.Value
	// funcs keeps registered callbacks alive for the page lifetime.
	funcs []js.Func
}

// Wrap adapts a DOM node handle.
func Wrap(v js.Value) Element {
	return &jsElement{v: v}
}

func (e *jsElement) ID() string { return e.v.Get("id").String() }

func (e *jsElement) Hidden() bool { return e.v.Get("hidden").Bool() }

func (e *jsElement) SetHidden(hidden bool) { e.v.Set("hidden", hidden) }

func (e *jsElement) Disabled() bool { return e.v.Get("disabled").Bool() }

func (e *jsElement) SetDisabled(disabled bool) { e.v.Set("disabled", disabled) }

func (e *jsElement) AddClass(class string) { e.v.Get("classList").Call("add", class) }

func (e *jsElement) RemoveClass(class string) { e.v.Get("classList").Call("remove", class) }

func (e *jsElement) HasClass(class string) bool {
	return e.v.Get("classList").Call("contains", class).Bool()
}

func (e *jsElement) Content() string { return e.v.Get("textContent").String() }

func (e *jsElement) SetContent(text string) { e.v.Set("textContent", text) }

func (e *jsElement) AddEventListener(eventType string, fn Listener) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := Event{Type: eventType}
		if len(args) > 0 {
			ev.Files = filesOf(args[0])
		}
		fn(ev)
		return nil
	})
	e.funcs = append(e.funcs, cb)
	e.v.Call("addEventListener", eventType, cb)
}

func filesOf(ev js.Value) []File {
	target := ev.Get("target")
	if target.IsUndefined() || target.IsNull() {
		return nil
	}
	list := target.Get("files")
	if list.IsUndefined() || list.IsNull() {
		return nil
	}
	n := list.Get("length").Int()
	files := make([]File, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, &jsFile{v: list.Index(i)})
	}
	return files
}

type jsFile struct {
	v js.Value
}

func (f *jsFile) Name() string { return f.v.Get("name").String() }

// Open reads the whole blob. It blocks on a promise, so it must not be called
// from a listener.
func (f *jsFile) Open() (io.ReadCloser, error) {
	buf, err := await(f.v.Call("arrayBuffer"))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name(), err)
	}
	arr := js.Global().Get("Uint8Array").New(buf)
	data := make([]byte, arr.Get("length").Int())
	js.CopyBytesToGo(data, arr)
	return io.NopCloser(bytes.NewReader(data)), nil
}

func await(promise js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	then := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{v: args[0]}
		return nil
	})
	defer then.Release()
	catch := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{err: fmt.Errorf("promise rejected: %s", args[0].Call("toString").String())}
		return nil
	})
	defer catch.Release()
	promise.Call("then", then, catch)
	r := <-ch
	return r.v, r.err
}
