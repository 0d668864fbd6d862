package plugin

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultMaxFileSize caps a single data file.
const DefaultMaxFileSize int64 = 16 << 20

// Context is the per-plugin sandbox: a private configuration namespace, a
// private data directory and the host services the plugin may use.
// A Context is safe for concurrent use.
type Context struct {
	name        string
	root        string
	maxFileSize int64
	policy      IsolationPolicy
	caps        Capabilities

	mu     sync.RWMutex
	config map[string]any
}

// ContextOption customises a Context at construction.
type ContextOption func(*Context)

// WithConfig seeds the configuration namespace. The map is copied.
func WithConfig(seed map[string]any) ContextOption {
	return func(c *Context) {
		for k, v := range seed {
			c.config[k] = v
		}
	}
}

// WithCapabilities hands host services to the context.
func WithCapabilities(caps Capabilities) ContextOption {
	return func(c *Context) { c.caps = caps }
}

// WithPolicy restricts which capabilities the context hands out.
func WithPolicy(policy IsolationPolicy) ContextOption {
	return func(c *Context) { c.policy = policy }
}

// WithMaxFileSize overrides DefaultMaxFileSize. Values below 1 MiB are ignored.
func WithMaxFileSize(n int64) ContextOption {
	return func(c *Context) {
		if n >= 1<<20 {
			c.maxFileSize = n
		}
	}
}

// NewContext validates name and binds it to <dataDir>/plugins/<name>. The
// directory is not created until first needed.
func NewContext(name, dataDir string, opts ...ContextOption) (*Context, error) {
	if err := ValidateIdentity(name); err != nil {
		return nil, err
	}
	if dataDir == "" {
		return nil, InvalidArguments("host data directory cannot be empty")
	}
	base, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, IOError(err, "resolve host data directory")
	}
	c := &Context{
		name:        name,
		root:        filepath.Join(base, "plugins", name),
		maxFileSize: DefaultMaxFileSize,
		config:      make(map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Name returns the plugin identity bound to the context.
func (c *Context) Name() string { return c.name }

// DataDir returns the absolute data directory of the plugin.
func (c *Context) DataDir() string { return c.root }

// GetConfig returns the value stored under key, or def when absent.
func (c *Context) GetConfig(key string, def any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.config[key]; ok {
		return v
	}
	return def
}

// SetConfig stores value under key without coercion.
func (c *Context) SetConfig(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config[key] = value
}

// ConfigKeys lists the configured keys, sorted.
func (c *Context) ConfigKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.config))
	for k := range c.config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnsureDataDir creates the data directory if needed.
func (c *Context) EnsureDataDir() error {
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return IOError(err, "create data directory for %s", c.name)
	}
	return nil
}

// WriteDataFile creates or replaces filename with content.
func (c *Context) WriteDataFile(filename string, content []byte) error {
	if !checkFilename(filename) {
		return PathViolation(c.name, filename)
	}
	if int64(len(content)) > c.maxFileSize {
		return InvalidArguments("data file %q is %d bytes, limit is %d", filename, len(content), c.maxFileSize)
	}
	if err := c.EnsureDataDir(); err != nil {
		return err
	}
	if symlinkEscapes(c.root, filename) {
		return PathViolation(c.name, filename)
	}

	root, err := os.OpenRoot(c.root)
	if err != nil {
		return IOError(err, "open data directory for %s", c.name)
	}
	defer root.Close()

	f, err := root.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return IOError(err, "open data file %q", filename)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return IOError(err, "write data file %q", filename)
	}
	if err := f.Close(); err != nil {
		return IOError(err, "close data file %q", filename)
	}
	return nil
}

// WriteDataString is WriteDataFile for text.
func (c *Context) WriteDataString(filename, content string) error {
	return c.WriteDataFile(filename, []byte(content))
}

// ReadDataFile returns the content of filename. A missing file and a name
// that would leave the data directory both report ok=false with a nil error.
func (c *Context) ReadDataFile(filename string) ([]byte, bool, error) {
	if !checkFilename(filename) || symlinkEscapes(c.root, filename) {
		return nil, false, nil
	}
	root, err := os.OpenRoot(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, IOError(err, "open data directory for %s", c.name)
	}
	defer root.Close()

	f, err := root.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, IOError(err, "open data file %q", filename)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, IOError(err, "stat data file %q", filename)
	}
	if !info.Mode().IsRegular() {
		return nil, false, nil
	}
	content, err := io.ReadAll(io.LimitReader(f, c.maxFileSize+1))
	if err != nil {
		return nil, false, IOError(err, "read data file %q", filename)
	}
	if int64(len(content)) > c.maxFileSize {
		return nil, false, IOError(fmt.Errorf("file exceeds %d bytes", c.maxFileSize), "read data file %q", filename)
	}
	return content, true, nil
}

// ReadDataString is ReadDataFile for text.
func (c *Context) ReadDataString(filename string) (string, bool, error) {
	content, ok, err := c.ReadDataFile(filename)
	return string(content), ok, err
}

// DeleteDataFile removes filename. Removing a missing file is not an error.
func (c *Context) DeleteDataFile(filename string) error {
	if !checkFilename(filename) {
		return PathViolation(c.name, filename)
	}
	root, err := os.OpenRoot(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return IOError(err, "open data directory for %s", c.name)
	}
	defer root.Close()

	info, err := root.Lstat(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return IOError(err, "stat data file %q", filename)
	}
	if info.IsDir() {
		return InvalidArguments("%q is not a data file", filename)
	}
	if err := root.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return IOError(err, "remove data file %q", filename)
	}
	return nil
}

// ListDataFiles returns the regular files directly inside the data
// directory, sorted. Subdirectories and symlinks are skipped.
func (c *Context) ListDataFiles() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, IOError(err, "list data directory for %s", c.name)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// AIProvider returns the named provider, or the default one when name is
// empty.
func (c *Context) AIProvider(name string) (AIProvider, error) {
	if !c.policy.Allows(CapabilityAI) {
		return nil, CapabilityUnavailable(c.name, "ai capability")
	}
	if name == "" {
		name = c.caps.DefaultProvider
	}
	p, ok := c.caps.Providers[name]
	if !ok || p == nil {
		return nil, CapabilityUnavailable(c.name, fmt.Sprintf("ai provider %q", name))
	}
	return p, nil
}

// AIProviders lists the providers this context may use.
func (c *Context) AIProviders() []string {
	if !c.policy.Allows(CapabilityAI) {
		return nil
	}
	return c.caps.ProviderNames()
}

// ProjectMemory returns the shared project memory.
func (c *Context) ProjectMemory() (Memory, error) {
	if !c.policy.Allows(CapabilityMemory) || c.caps.Memory == nil {
		return nil, CapabilityUnavailable(c.name, "project memory")
	}
	return c.caps.Memory, nil
}

// NewAgent creates an agent backed by the default AI provider when the
// plugin may use one.
func (c *Context) NewAgent(name string, capabilities []string) (*Agent, error) {
	if !c.policy.Allows(CapabilityAgent) {
		return nil, CapabilityUnavailable(c.name, "agent capability")
	}
	if name == "" {
		return nil, InvalidArguments("agent name cannot be empty")
	}
	agent := &Agent{name: name, capabilities: append([]string(nil), capabilities...)}
	if p, err := c.AIProvider(""); err == nil {
		agent.provider = p
	}
	return agent, nil
}
