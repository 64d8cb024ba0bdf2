package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/serroba/easy-qr-codes/internal/handlers"
	"github.com/serroba/easy-qr-codes/internal/messaging"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"github.com/serroba/easy-qr-codes/internal/store"
	"go.uber.org/zap"
)

var errMock = errors.New("mock error")

const (
	testBase     = "http://localhost:8888/q"
	testFallback = "http://localhost:8888/"
)

type stubRenderer struct {
	err error
}

func (s *stubRenderer) Render(text string, _ qrcode.ErrorCorrection, _ int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	return []byte(text), nil
}

type stubImages struct {
	mu    sync.Mutex
	saves int
}

func (s *stubImages) Save(_ context.Context, id qrcode.ID, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++

	return fmt.Sprintf("/uploads/qr_codes/qr_code_%s.png?v=%d", id, s.saves), nil
}

// brokenStore fails every read and write.
type brokenStore struct {
	qrcode.Repository
}

func (brokenStore) Get(context.Context, qrcode.ID) (*qrcode.Record, error) {
	return nil, fmt.Errorf("%w: get: %w", qrcode.ErrStorage, errMock)
}

func (brokenStore) List(context.Context) ([]*qrcode.Record, error) {
	return nil, fmt.Errorf("%w: list: %w", qrcode.ErrStorage, errMock)
}

// uncountableStore serves records but cannot increment usage.
type uncountableStore struct {
	qrcode.Repository
}

func (uncountableStore) IncrementUsage(context.Context, qrcode.ID) (uint64, error) {
	return 0, fmt.Errorf("%w: increment: %w", qrcode.ErrStorage, errMock)
}

type fixture struct {
	store    *store.MemoryStore
	renderer *stubRenderer
	svc      *qrcode.Service
	redirect *handlers.RedirectHandler
	records  *handlers.RecordHandler
}

func newFixture() *fixture {
	memStore := store.NewMemoryStore()
	renderer := &stubRenderer{}
	svc := qrcode.NewService(
		memStore,
		renderer,
		&stubImages{},
		testFallback,
		messaging.Discard[qrcode.RenderRequestedEvent](),
		zap.NewNop(),
	)

	return &fixture{
		store:    memStore,
		renderer: renderer,
		svc:      svc,
		redirect: handlers.NewRedirectHandler(memStore, testFallback, zap.NewNop()),
		records:  handlers.NewRecordHandler(svc, testBase, zap.NewNop()),
	}
}
