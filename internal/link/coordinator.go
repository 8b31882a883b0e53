package link

import (
	"sort"
	"strings"
	"sync"
)

// workingCopy is the single template buffer a pass rewrites in place.
type workingCopy struct {
	mu      sync.Mutex
	content string
}

// substitute replaces placeholder with value quoted as a pug string literal.
func (w *workingCopy) substitute(placeholder, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.content = strings.Replace(w.content, placeholder, quoteLiteral(value), 1)
}

func (w *workingCopy) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.content
}

// literalEscaper escapes a value for a single-quoted pug attribute. Line
// breaks are escaped so the value stays on one line.
var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
)

func quoteLiteral(value string) string {
	return "'" + literalEscaper.Replace(value) + "'"
}

// fanIn counts outstanding sub-builds and fires onZero exactly once when the
// last one completes. The count is fixed at construction, before anything is
// dispatched.
type fanIn struct {
	mu          sync.Mutex
	outstanding int
	fired       bool
	onZero      func()
}

func newFanIn(outstanding int, onZero func()) *fanIn {
	return &fanIn{outstanding: outstanding, onZero: onZero}
}

// done records one completion.
func (f *fanIn) done() {
	f.mu.Lock()
	if f.outstanding > 0 {
		f.outstanding--
	}
	fire := f.outstanding == 0 && !f.fired
	if fire {
		f.fired = true
	}
	f.mu.Unlock()

	if fire {
		f.onZero()
	}
}

// DependencySet collects the files a pass read.
type DependencySet struct {
	mu    sync.Mutex
	files map[string]struct{}
}

// NewDependencySet creates an empty set.
func NewDependencySet() *DependencySet {
	return &DependencySet{files: make(map[string]struct{})}
}

// Add records files.
func (d *DependencySet) Add(files ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, file := range files {
		if file != "" {
			d.files[file] = struct{}{}
		}
	}
}

// Sorted returns the recorded files in lexical order.
func (d *DependencySet) Sorted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.files))
	for file := range d.files {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}

// childAssets gathers the side assets sub-builds emit.
type childAssets struct {
	mu     sync.Mutex
	assets map[string][]byte
}

func (c *childAssets) merge(assets map[string][]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assets == nil {
		c.assets = make(map[string][]byte, len(assets))
	}
	for name, data := range assets {
		c.assets[name] = data
	}
}

func (c *childAssets) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.assets))
	for name := range c.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *childAssets) get(name string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assets[name]
}
