package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
)

// Collector accumulates resolution errors from concurrent workers. It is
// append-only; identical reports (same kind, range and message) are kept
// once.
type Collector struct {
	mu   sync.Mutex
	errs []Error
	seen map[string]struct{}
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Add records err.
func (c *Collector) Add(err Error) {
	key := fmt.Sprintf("%s|%s|%d|%s", err.Kind(), err.Range().Filename, err.Range().Start.Byte, err.Error())

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.errs = append(c.errs, err)
}

// Len returns the number of distinct errors recorded so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Err returns nil when nothing was recorded, or a *List ordered by source
// position. Errors at the same position keep arrival order.
func (c *Collector) Err() error {
	c.mu.Lock()
	errs := make([]Error, len(c.errs))
	copy(errs, c.errs)
	c.mu.Unlock()

	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i].Range(), errs[j].Range()
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Start.Byte < b.Start.Byte
	})
	return &List{Errors: errs}
}

// List is the batch of resolution errors returned instead of a model.
type List struct {
	Errors []Error
}

func (l *List) Error() string {
	if len(l.Errors) == 1 {
		return l.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d resolution errors:", len(l.Errors))
	for _, e := range l.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l *List) Unwrap() []error {
	out := make([]error, len(l.Errors))
	for i, e := range l.Errors {
		out[i] = e
	}
	return out
}

// Kinds counts errors per kind.
func (l *List) Kinds() map[Kind]int {
	out := make(map[Kind]int)
	for _, e := range l.Errors {
		out[e.Kind()]++
	}
	return out
}

// Flatten returns the taxonomy errors carried by err, which may be a single
// Error or a *List. Other errors yield nil.
func Flatten(err error) []Error {
	var list *List
	if errors.As(err, &list) {
		return list.Errors
	}
	var single Error
	if errors.As(err, &single) {
		return []Error{single}
	}
	return nil
}

// Diagnostics converts err into hcl diagnostics for rendering. Errors that
// are not part of the taxonomy become a single diagnostic without subject.
func Diagnostics(err error) hcl.Diagnostics {
	if err == nil {
		return nil
	}
	errs := Flatten(err)
	if errs == nil {
		return hcl.Diagnostics{{Severity: hcl.DiagError, Summary: err.Error()}}
	}
	diags := make(hcl.Diagnostics, 0, len(errs))
	for _, e := range errs {
		subject := e.Range()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  string(e.Kind()),
			Detail:   e.Error(),
			Subject:  &subject,
		})
	}
	return diags
}
