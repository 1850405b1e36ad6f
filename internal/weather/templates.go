package weather

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

//go:embed templates/*.html
var embedded embed.FS

var pageNames = []string{"home.html", "forecast.html"}

// Templates renders the pages. Pages are parsed from the embedded files, or
// from a directory on disk when one is given, and Watch reloads them from
// there on change.
type Templates struct {
	dir string

	mu    sync.RWMutex
	pages map[string]*template.Template

	watcher *fsnotify.Watcher
}

// NewTemplates parses the pages from dir, or from the embedded copies when
// dir is empty.
func NewTemplates(dir string) (*Templates, error) {
	t := &Templates{dir: dir}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Templates) source() (fs.FS, error) {
	if t.dir == "" {
		return fs.Sub(embedded, "templates")
	}
	return os.DirFS(t.dir), nil
}

func (t *Templates) reload() error {
	fsys, err := t.source()
	if err != nil {
		return errors.Wrap(err, "opening templates")
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New(name).ParseFS(fsys, "layout.html", name)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", name)
		}
		pages[name] = tpl
	}
	t.mu.Lock()
	t.pages = pages
	t.mu.Unlock()
	return nil
}

// Render executes the layout with page name.
func (t *Templates) Render(name string, data any) ([]byte, error) {
	t.mu.RLock()
	tpl, ok := t.pages[name]
	t.mu.RUnlock()
	if !ok {
		return nil, errors.Newf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, errors.Wrapf(err, "rendering %s", name)
	}
	return buf.Bytes(), nil
}

// Watch reloads the pages whenever a template file in the directory changes.
// A template that fails to parse is logged and the previous set stays live.
// It is a no-op for embedded templates.
func (t *Templates) Watch(logger *slog.Logger) error {
	if t.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating template watcher")
	}
	if err := w.Add(t.dir); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "watching %s", t.dir)
	}
	t.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, ".html") || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := t.reload(); err != nil {
					logger.Error("template reload failed", "file", filepath.Base(ev.Name), "err", err)
					continue
				}
				logger.Info("templates reloaded", "file", filepath.Base(ev.Name))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("template watcher", "err", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher.
func (t *Templates) Close() error {
	if t.watcher == nil {
		return nil
	}
	return t.watcher.Close()
}
