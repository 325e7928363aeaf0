package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

var errNoKey = errors.New("routing key not found in context")

type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
}

type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

var _ Cache[int] = (*MemoryCache[int])(nil)

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	return val, ok, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

// FileCache keeps one JSON file per key under root. A key "memory:form_x"
// is stored as "memory_form_x.json".
type FileCache[S any] struct {
	root string
	mu   sync.RWMutex
}

var _ Cache[int] = (*FileCache[int])(nil)

func NewFileCache[S any](root string) (*FileCache[S], error) {
	if root == "" {
		return nil, errors.New("file cache root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileCache[S]{root: root}, nil
}

// Path returns the file that holds key.
func (c *FileCache[S]) Path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", `\`, "_").Replace(key)
	return filepath.Join(c.root, name+".json")
}

func (c *FileCache[S]) Set(ctx context.Context, key string, val S) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := sonic.ConfigStd.MarshalIndent(val, "", "  ")
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.WriteFile(c.Path(key), data, 0o644)
}

func (c *FileCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var zero S
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.Path(key))
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, false, nil
		}
		return zero, false, err
	}
	var val S
	if err := sonic.Unmarshal(data, &val); err != nil {
		return zero, false, err
	}
	return val, true, nil
}

func (c *FileCache[S]) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Store scopes a Cache to a namespace and reads the key from the context.
type Store[S any] struct {
	core      Cache[S]
	namespace string
	keyFn     func(ctx context.Context) (string, bool)
}

func NewStore[S any](core Cache[S], namespace string, keyFn func(ctx context.Context) (string, bool)) Store[S] {
	return Store[S]{
		core:      core,
		namespace: namespace,
		keyFn:     keyFn,
	}
}

func (c Store[S]) key(ctx context.Context) (string, bool) {
	key, exist := c.keyFn(ctx)
	if !exist || key == "" {
		return "", false
	}
	return c.namespace + ":" + key, true
}

func (c Store[S]) Set(ctx context.Context, val S) error {
	key, ok := c.key(ctx)
	if !ok {
		return errNoKey
	}
	return c.core.Set(ctx, key, val)
}

func (c Store[S]) Get(ctx context.Context) (S, bool, error) {
	key, ok := c.key(ctx)
	if !ok {
		var zero S
		return zero, false, errNoKey
	}
	return c.core.Get(ctx, key)
}

func (c Store[S]) Del(ctx context.Context) error {
	key, ok := c.key(ctx)
	if !ok {
		return errNoKey
	}
	return c.core.Del(ctx, key)
}

type formIDContext struct{}

type sessionIDContext struct{}

// WithFormID routes history storage to the chat file of formID.
func WithFormID(ctx context.Context, formID string) context.Context {
	return context.WithValue(ctx, formIDContext{}, formID)
}

func FormIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(formIDContext{}).(string)
	return id, ok
}

// WithSessionID routes session state to one conversation about a form.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContext{}, sessionID)
}

// SessionKeyFromContext combines form id and session id.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	formID, ok := FormIDFromContext(ctx)
	if !ok || formID == "" {
		return "", false
	}
	sessionID, ok := ctx.Value(sessionIDContext{}).(string)
	if !ok || sessionID == "" {
		sessionID = DefaultSessionID(formID)
	}
	return formID + "/" + sessionID, true
}

// DefaultSessionID is used when a turn names no session.
func DefaultSessionID(formID string) string {
	return "session_" + formID
}
