package admin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/serroba/easy-qr-codes/internal/admin"
	"github.com/serroba/easy-qr-codes/internal/messaging"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"github.com/serroba/easy-qr-codes/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBase     = "http://localhost:8888/q"
	testFallback = "http://localhost:8888/"
)

var errMock = errors.New("mock error")

type stubRenderer struct {
	err error
}

func (s *stubRenderer) Render(text string, _ qrcode.ErrorCorrection, _ int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	return []byte(text), nil
}

type stubImages struct{}

func (stubImages) Save(_ context.Context, id qrcode.ID, _ []byte) (string, error) {
	return "/uploads/qr_codes/qr_code_" + id.String() + ".png?v=test", nil
}

type fixture struct {
	store    *store.MemoryStore
	renderer *stubRenderer
	router   *chi.Mux
}

func newFixture(middlewares ...func(http.Handler) http.Handler) *fixture {
	memStore := store.NewMemoryStore()
	renderer := &stubRenderer{}
	svc := qrcode.NewService(memStore, renderer, stubImages{}, testFallback,
		messaging.Discard[qrcode.RenderRequestedEvent](), zap.NewNop())

	router := chi.NewMux()
	admin.NewHandler(svc, "/admin", testBase, testFallback, zap.NewNop()).RegisterRoutes(router, middlewares...)

	return &fixture{store: memStore, renderer: renderer, router: router}
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func (f *fixture) post(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func (f *fixture) seed(t *testing.T, target string) qrcode.ID {
	t.Helper()

	id, err := f.store.Create(context.Background(), target)
	require.NoError(t, err)

	return id
}

func TestShow(t *testing.T) {
	t.Run("lists records in viewing state", func(t *testing.T) {
		f := newFixture()
		f.seed(t, "https://example.com/page")

		rec := f.get("/admin")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.Contains(t, body, `<a href="https://example.com/page">`)
		assert.Contains(t, body, `href="/admin?edit=1"`)
		assert.Contains(t, body, testBase+"/1")
		assert.NotContains(t, body, `value="update"`)
	})

	t.Run("pending records are marked", func(t *testing.T) {
		f := newFixture()
		f.seed(t, "https://example.com/page")

		body := f.get("/admin").Body.String()

		assert.Contains(t, body, `class="pending"`)
	})

	t.Run("edit parameter opens one inline form", func(t *testing.T) {
		f := newFixture()
		f.seed(t, "https://example.com/one")
		f.seed(t, "https://example.com/two")

		body := f.get("/admin?edit=2").Body.String()

		assert.Equal(t, 1, strings.Count(body, `value="update"`))
		assert.Contains(t, body, `value="https://example.com/two"`)
		assert.Contains(t, body, `<a href="https://example.com/one">`)
	})

	t.Run("empty list", func(t *testing.T) {
		f := newFixture()

		body := f.get("/admin").Body.String()

		assert.Contains(t, body, "No QR codes yet.")
	})

	t.Run("shows notice", func(t *testing.T) {
		f := newFixture()

		body := f.get("/admin?notice=updated").Body.String()

		assert.Contains(t, body, "Target URL updated.")
	})

	t.Run("escapes target urls", func(t *testing.T) {
		f := newFixture()
		f.seed(t, `https://example.com/?q="><script>alert(1)</script>`)

		body := f.get("/admin").Body.String()

		assert.NotContains(t, body, "<script>alert(1)</script>")
	})
}

func TestSubmit_Create(t *testing.T) {
	t.Run("creates and redirects with notice", func(t *testing.T) {
		f := newFixture()

		rec := f.post(url.Values{"action": {"create"}, "target_url": {"https://example.com/page"}})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin?notice=created", rec.Header().Get("Location"))

		record, err := f.store.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusRendered, record.Status)
	})

	t.Run("blank target uses fallback", func(t *testing.T) {
		f := newFixture()

		rec := f.post(url.Values{"action": {"create"}, "target_url": {""}})

		require.Equal(t, http.StatusSeeOther, rec.Code)

		record, err := f.store.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, testFallback, record.TargetURL)
	})

	t.Run("invalid target keeps the value for retry", func(t *testing.T) {
		f := newFixture()

		rec := f.post(url.Values{"action": {"create"}, "target_url": {"not a url"}})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="error"`)
		assert.Contains(t, rec.Body.String(), `value="not a url"`)

		_, err := f.store.Get(context.Background(), 1)
		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("render failure leaves a visible pending record", func(t *testing.T) {
		f := newFixture()
		f.renderer.err = errMock

		rec := f.post(url.Values{"action": {"create"}, "target_url": {"https://example.com/page"}})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin?notice=pending", rec.Header().Get("Location"))

		body := f.get("/admin").Body.String()
		assert.Contains(t, body, `class="pending"`)
	})
}

func TestSubmit_Update(t *testing.T) {
	t.Run("saves and returns to viewing", func(t *testing.T) {
		f := newFixture()
		id := f.seed(t, "https://example.com/page")

		rec := f.post(url.Values{"action": {"update"}, "id": {id.String()}, "target_url": {"https://example.com/other"}})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin?notice=updated", rec.Header().Get("Location"))

		record, err := f.store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/other", record.TargetURL)
	})

	t.Run("invalid target stays in editing with submitted value", func(t *testing.T) {
		f := newFixture()
		id := f.seed(t, "https://example.com/page")

		rec := f.post(url.Values{"action": {"update"}, "id": {id.String()}, "target_url": {"nope"}})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `class="error"`)
		assert.Contains(t, body, `value="update"`)
		assert.Contains(t, body, `value="nope"`)

		record, err := f.store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", record.TargetURL)
	})

	t.Run("empty target is echoed back instead of the stored one", func(t *testing.T) {
		f := newFixture()
		id := f.seed(t, "https://example.com/page")

		rec := f.post(url.Values{"action": {"update"}, "id": {id.String()}, "target_url": {""}})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `value="update"`)
		assert.NotContains(t, body, "https://example.com/page")
	})

	t.Run("unknown record shows notice in viewing state", func(t *testing.T) {
		f := newFixture()

		rec := f.post(url.Values{"action": {"update"}, "id": {"42"}, "target_url": {"https://example.com"}})

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "That QR code does not exist.")
		assert.NotContains(t, rec.Body.String(), `value="update"`)
	})
}

func TestSubmit_Cancel(t *testing.T) {
	f := newFixture()
	id := f.seed(t, "https://example.com/page")

	rec := f.post(url.Values{"action": {"cancel"}, "id": {id.String()}, "target_url": {"https://changed.example"}})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	record, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", record.TargetURL)
}

func TestSubmit_Render(t *testing.T) {
	t.Run("renders a pending record", func(t *testing.T) {
		f := newFixture()
		id := f.seed(t, "https://example.com/page")

		rec := f.post(url.Values{"action": {"render"}, "id": {id.String()}})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin?notice=rendered", rec.Header().Get("Location"))

		record, err := f.store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusRendered, record.Status)
	})

	t.Run("render failure keeps record pending", func(t *testing.T) {
		f := newFixture()
		id := f.seed(t, "https://example.com/page")
		f.renderer.err = errMock

		rec := f.post(url.Values{"action": {"render"}, "id": {id.String()}})

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "stays pending")
	})
}

func TestSubmit_Invalid(t *testing.T) {
	f := newFixture()

	rec := f.post(url.Values{"action": {"delete"}, "id": {"1"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)
}

func TestRegisterRoutes_Middlewares(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	f := newFixture(deny)

	assert.Equal(t, http.StatusUnauthorized, f.get("/admin").Code)
	assert.Equal(t, http.StatusUnauthorized, f.post(url.Values{"action": {"create"}}).Code)
}
