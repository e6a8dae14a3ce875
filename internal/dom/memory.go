package dom

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Page is an in-memory Document. It is safe for concurrent use.
type Page struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

// NewPage creates a page holding one empty node per id.
func NewPage(ids ...string) *Page {
	p := &Page{nodes: make(map[string]*Node)}
	for _, id := range ids {
		p.Add(id)
	}
	return p
}

// Add creates the node id, or returns the existing one.
func (p *Page) Add(id string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.nodes[id]; ok {
		return n
	}
	n := &Node{id: id, classes: make(map[string]struct{}), listeners: make(map[string][]Listener)}
	p.nodes[id] = n
	return n
}

// Node returns the node id, or nil.
func (p *Page) Node(id string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[id]
}

// QuerySelector implements Document.
func (p *Page) QuerySelector(selector string) (Element, error) {
	id, err := ParseIDSelector(selector)
	if err != nil {
		return nil, err
	}
	n := p.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return n, nil
}

// Dispatch delivers ev to the listeners registered on node id, in
// registration order, the way a browser fires a user gesture.
func (p *Page) Dispatch(id string, ev Event) error {
	n := p.Node(id)
	if n == nil {
		return fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	n.dispatch(ev)
	return nil
}

// Node is an in-memory Element.
type Node struct {
	id string

	mu        sync.Mutex
	hidden    bool
	disabled  bool
	content   string
	classes   map[string]struct{}
	listeners map[string][]Listener
}

func (n *Node) ID() string { return n.id }

func (n *Node) Hidden() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hidden
}

func (n *Node) SetHidden(hidden bool) {
	n.mu.Lock()
	n.hidden = hidden
	n.mu.Unlock()
}

func (n *Node) Disabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.disabled
}

func (n *Node) SetDisabled(disabled bool) {
	n.mu.Lock()
	n.disabled = disabled
	n.mu.Unlock()
}

func (n *Node) AddClass(class string) {
	n.mu.Lock()
	n.classes[class] = struct{}{}
	n.mu.Unlock()
}

func (n *Node) RemoveClass(class string) {
	n.mu.Lock()
	delete(n.classes, class)
	n.mu.Unlock()
}

func (n *Node) HasClass(class string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.classes[class]
	return ok
}

// Classes returns the class list, sorted.
func (n *Node) Classes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.classes))
	for c := range n.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (n *Node) Content() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.content
}

func (n *Node) SetContent(text string) {
	n.mu.Lock()
	n.content = text
	n.mu.Unlock()
}

func (n *Node) AddEventListener(eventType string, fn Listener) {
	n.mu.Lock()
	n.listeners[eventType] = append(n.listeners[eventType], fn)
	n.mu.Unlock()
}

// ListenerCount reports how many listeners are registered for eventType.
func (n *Node) ListenerCount(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[eventType])
}

func (n *Node) dispatch(ev Event) {
	n.mu.Lock()
	fns := append([]Listener(nil), n.listeners[ev.Type]...)
	n.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// MemFile is a File held in memory.
type MemFile struct {
	name string
	data []byte
}

// NewFile wraps data as a selected file called name.
func NewFile(name string, data []byte) *MemFile {
	return &MemFile{name: name, data: data}
}

func (f *MemFile) Name() string { return f.name }

func (f *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// DiskFile is a File read lazily from the local filesystem.
type DiskFile struct {
	path string
}

// OpenFile selects the file at path. The file is not read until Open.
func OpenFile(path string) *DiskFile {
	return &DiskFile{path: path}
}

func (f *DiskFile) Name() string { return filepath.Base(f.path) }

func (f *DiskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
