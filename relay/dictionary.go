package relay

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// Dictionary is the request-scoped Store. It loads from its Provider on first
// use and writes back on Flush. Entries returned by Get are dropped at Flush
// unless they are kept or set again; reads before Flush see the same data.
//
// A Dictionary belongs to one request and is not safe for concurrent use.
type Dictionary struct {
	c        ctx.Ctx
	provider Provider

	loaded  bool
	changed bool
	data    map[string]any
	read    map[string]struct{}
}

// NewDictionary returns a Dictionary bound to the request behind c.
func NewDictionary(c ctx.Ctx, p Provider) *Dictionary {
	return &Dictionary{c: c, provider: p}
}

func (d *Dictionary) load() {
	if d.loaded {
		return
	}
	d.loaded = true
	d.read = map[string]struct{}{}
	d.data = map[string]any{}

	values, err := d.provider.Load(d.c)
	if err != nil {
		// Drop the broken transport state at the next Flush.
		d.changed = true
		ctx.LoggerFromContext(d.c.Context()).Warn("tempdata load failed", "err", err.Error())
		return
	}
	for k, v := range values {
		cv, err := Canonical(v)
		if err != nil {
			d.changed = true
			ctx.LoggerFromContext(d.c.Context()).Warn("tempdata value dropped", "key", k, "err", err.Error())
			continue
		}
		d.data[k] = cv
	}
}

// Get returns the value under key and marks it read.
func (d *Dictionary) Get(key string) (any, bool) {
	d.load()
	v, ok := d.data[key]
	if ok {
		d.read[key] = struct{}{}
		d.changed = true
	}
	return v, ok
}

// Peek returns the value under key without marking it read.
func (d *Dictionary) Peek(key string) (any, bool) {
	d.load()
	v, ok := d.data[key]
	return v, ok
}

// Set stores v under key after canonicalisation. The entry is retained at
// the next Flush even if it was read earlier in the request.
func (d *Dictionary) Set(key string, v any) error {
	cv, err := Canonical(v)
	if err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	d.load()
	d.data[key] = cv
	delete(d.read, key)
	d.changed = true
	return nil
}

// Keep retains key at the next Flush even though it was read.
func (d *Dictionary) Keep(key string) {
	d.load()
	delete(d.read, key)
}

// KeepAll retains every entry at the next Flush.
func (d *Dictionary) KeepAll() {
	d.load()
	d.read = map[string]struct{}{}
}

// Delete removes key immediately.
func (d *Dictionary) Delete(key string) {
	d.load()
	if _, ok := d.data[key]; ok {
		delete(d.data, key)
		delete(d.read, key)
		d.changed = true
	}
}

// Len returns the number of entries, read ones included.
func (d *Dictionary) Len() int {
	d.load()
	return len(d.data)
}

// Keys returns the entry keys in sorted order.
func (d *Dictionary) Keys() []string {
	d.load()
	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush removes read entries and saves the rest through the Provider. A
// Dictionary that was never read from or written to does not touch the
// transport.
func (d *Dictionary) Flush() error {
	if !d.loaded || !d.changed {
		return nil
	}
	for k := range d.read {
		delete(d.data, k)
	}
	d.read = map[string]struct{}{}
	out := make(map[string]any, len(d.data))
	for k, v := range d.data {
		out[k] = v
	}
	if err := d.provider.Save(d.c, out); err != nil {
		return errors.Wrap(err, "tempdata save")
	}
	d.changed = false
	return nil
}
