package load

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/syssam/grace/schema"
)

// Supported model document formats, by file extension.
const (
	FormatJSON    = ".json"
	FormatYAML    = ".yaml"
	FormatMsgpack = ".msgpack"
)

// Format returns the document format of the given path.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("load: unsupported model format %q", ext)
	}
}

// Decode decodes buf according to the given format.
func Decode(format string, buf []byte) (*Model, error) {
	m := &Model{}
	var err error
	switch format {
	case FormatJSON:
		return UnmarshalModel(buf)
	case FormatYAML:
		err = yaml.Unmarshal(buf, m)
	case FormatMsgpack:
		err = msgpack.Unmarshal(buf, m)
	default:
		err = fmt.Errorf("load: unsupported model format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Encode encodes m according to the given format.
func Encode(format string, m *Model) ([]byte, error) {
	switch format {
	case FormatJSON:
		return MarshalModel(m)
	case FormatYAML:
		return yaml.Marshal(m)
	case FormatMsgpack:
		return msgpack.Marshal(m)
	default:
		return nil, fmt.Errorf("load: unsupported model format %q", format)
	}
}

// ReadFile reads the model document at path. Entities without an
// explicit modification time inherit the file's modification time.
func ReadFile(path string) (*Model, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read model: %w", err)
	}
	m, err := Decode(format, buf)
	if err != nil {
		return nil, fmt.Errorf("load: decode %s: %w", path, err)
	}
	if m.Modified.IsZero() {
		if fi, err := os.Stat(path); err == nil {
			m.Modified = fi.ModTime()
		}
	}
	return m, nil
}

// WriteFile encodes m into path using the format of its extension.
func WriteFile(path string, m *Model) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	buf, err := Encode(format, m)
	if err != nil {
		return fmt.Errorf("load: encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("load: create directory: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Convert rewrites the model document at src into dst, changing its
// format according to the extension of dst.
func Convert(src, dst string) error {
	m, err := ReadFile(src)
	if err != nil {
		return err
	}
	return WriteFile(dst, m)
}

// File reads and builds the domain stored at path.
func File(path string) (*schema.Domain, error) {
	m, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return m.Build()
}

// DefaultCacheSize is the number of domains a Loader keeps.
const DefaultCacheSize = 64

// Loader loads domains and caches them by path. A cached domain is
// reloaded when its file changes on disk. It is safe for concurrent use.
type Loader struct {
	mu    sync.Mutex
	cache *lru.Cache[string, cached]
}

type cached struct {
	domain  *schema.Domain
	modTime time.Time
}

// NewLoader returns a loader that keeps up to size domains.
func NewLoader(size int) (*Loader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, cached](size)
	if err != nil {
		return nil, err
	}
	return &Loader{cache: c}, nil
}

// Load returns the domain stored at path.
func (l *Loader) Load(path string) (*schema.Domain, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.cache.Get(abs); ok && c.modTime.Equal(fi.ModTime()) {
		return c.domain, nil
	}
	d, err := File(abs)
	if err != nil {
		return nil, err
	}
	l.cache.Add(abs, cached{domain: d, modTime: fi.ModTime()})
	return d, nil
}

// Purge drops every cached domain.
func (l *Loader) Purge() {
	l.cache.Purge()
}

// Len returns the number of cached domains.
func (l *Loader) Len() int {
	return l.cache.Len()
}
