package qrcode_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/serroba/easy-qr-codes/internal/messaging"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

var errMock = errors.New("mock error")

const (
	testBase     = "http://localhost:8888/q"
	testFallback = "http://localhost:8888/"
)

// fakeRenderer records the text it was asked to encode and returns it as the "image".
type fakeRenderer struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeRenderer) Render(text string, _ qrcode.ErrorCorrection, _ int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	f.texts = append(f.texts, text)

	return []byte(text), nil
}

// fakeImages keeps the last image per id and hands out numbered references.
type fakeImages struct {
	mu     sync.Mutex
	images map[qrcode.ID][]byte
	saves  int
	err    error
}

func newFakeImages() *fakeImages {
	return &fakeImages{images: make(map[qrcode.ID][]byte)}
}

func (f *fakeImages) Save(_ context.Context, id qrcode.ID, png []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	f.saves++
	f.images[id] = png

	return fmt.Sprintf("/uploads/qr_codes/qr_code_%s.png?v=%d", id, f.saves), nil
}

func (f *fakeImages) image(id qrcode.ID) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return string(f.images[id])
}

// capturePublish collects published events.
type capturePublish[T any] struct {
	mu     sync.Mutex
	events []*T
	err    error
}

func (c *capturePublish[T]) publish() messaging.Publish[T] {
	return func(_ context.Context, event *T) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.events = append(c.events, event)

		return c.err
	}
}

func (c *capturePublish[T]) all() []*T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*T(nil), c.events...)
}

// failingRepo wraps a repository and fails selected operations.
type failingRepo struct {
	qrcode.Repository
	createErr   error
	setImageErr error
}

func (f *failingRepo) Create(ctx context.Context, targetURL string) (qrcode.ID, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}

	return f.Repository.Create(ctx, targetURL)
}

func (f *failingRepo) SetImageReference(ctx context.Context, id qrcode.ID, reference string) error {
	if f.setImageErr != nil {
		return f.setImageErr
	}

	return f.Repository.SetImageReference(ctx, id, reference)
}

// unreachableRepo fails every read as if the database were down.
type unreachableRepo struct {
	qrcode.Repository
	mu       sync.Mutex
	getCalls int
}

func (u *unreachableRepo) Get(context.Context, qrcode.ID) (*qrcode.Record, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.getCalls++

	return nil, fmt.Errorf("%w: get: connection refused", qrcode.ErrStorage)
}

func (u *unreachableRepo) gets() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.getCalls
}
