package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/storage"
	"github.com/estatly/mediasign/testutil"
)

// SignedURLBase is the scheme and host of URLs issued by the test store.
const SignedURLBase = "https://signed.test"

// memFile holds a stored object's data and metadata.
type memFile struct {
	data        []byte
	contentType string
	modTime     time.Time
}

type state struct {
	files    map[string]*memFile
	failures map[string]error
}

// Component is a test storage component backed by an in-memory map.
// It implements component.Component, testutil.TestComponent, storage.Storage
// and storage.Provider.
type Component struct {
	bucket string

	mu        sync.RWMutex
	started   bool
	st        state
	signCalls int
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
	_ storage.Storage        = (*Component)(nil)
	_ storage.Provider       = (*Component)(nil)
)

// NewComponent creates a new in-memory storage test component.
func NewComponent(bucket string) *Component {
	return &Component{bucket: bucket}
}

// Get returns the component as storage.Storage once started.
func (c *Component) Get() (storage.Storage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return nil, fmt.Errorf("storage-test: component not started")
	}
	return c, nil
}

// FailKey makes every SignedURL call for key return err.
func (c *Component) FailKey(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.failures[key] = err
}

// SignCalls returns how many times SignedURL was called.
func (c *Component) SignCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signCalls
}

// Put stores data directly, bypassing Upload.
func (c *Component) Put(key string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.files[key] = &memFile{data: data, contentType: contentType, modTime: time.Now()}
}

// ContentType returns the stored content type of key.
func (c *Component) ContentType(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if f, ok := c.st.files[key]; ok {
		return f.contentType
	}
	return ""
}

// --- component.Component ---

func (c *Component) Name() string { return "storage-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("component already started")
	}
	c.st = newState()
	c.started = true
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st = state{}
	c.started = false
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// --- testutil.TestComponent ---

func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return fmt.Errorf("component not started")
	}
	c.st = newState()
	c.signCalls = 0
	return nil
}

func (c *Component) Snapshot(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return nil, fmt.Errorf("component not started")
	}
	return c.st.clone(), nil
}

func (c *Component) Restore(_ context.Context, snap interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return fmt.Errorf("component not started")
	}
	s, ok := snap.(state)
	if !ok {
		return fmt.Errorf("invalid snapshot type: %T", snap)
	}
	c.st = s.clone()
	return nil
}

// --- storage.Storage ---

// SignedURL returns a deterministic fake signed URL. Objects do not need to
// exist, matching presigners that sign without a round trip.
func (c *Component) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signCalls++
	if err, ok := c.st.failures[key]; ok {
		return "", err
	}
	q := url.Values{}
	q.Set("expires", strconv.Itoa(int(ttl.Seconds())))
	q.Set("signature", "test")
	return SignedURLBase + "/" + c.bucket + "/" + key + "?" + q.Encode(), nil
}

func (c *Component) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload data: %w", err)
	}
	c.Put(key, data, contentType)
	return nil
}

func (c *Component) Download(_ context.Context, key string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.st.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (c *Component) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.st.files[key]
	return ok, nil
}

func (c *Component) URL(key string) string {
	return "https://public.test/" + c.bucket + "/" + key
}

func (c *Component) Bucket() string { return c.bucket }

func newState() state {
	return state{files: make(map[string]*memFile), failures: make(map[string]error)}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.files {
		cp := *v
		cp.data = append([]byte(nil), v.data...)
		out.files[k] = &cp
	}
	for k, v := range s.failures {
		out.failures[k] = v
	}
	return out
}
