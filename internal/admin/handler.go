package admin

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"go.uber.org/zap"
)

//go:embed templates/admin.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/admin.html"))

var notices = map[string]string{
	"created":  "QR code created.",
	"pending":  "QR code created, but its image could not be rendered yet. Use Render to retry.",
	"updated":  "Target URL updated.",
	"rendered": "Image rendered.",
}

type row struct {
	ID             qrcode.ID
	Link           string
	ImageReference string
	TargetURL      string
	UsageCount     uint64
	CreatedAt      time.Time
	Editing        bool
	EditValue      string
	EditURL        string
}

type page struct {
	BasePath    string
	FallbackURL string
	Notice      string
	Error       string
	CreateValue string
	Rows        []row
}

// Handler serves the HTML admin surface.
type Handler struct {
	svc         *qrcode.Service
	basePath    string
	baseLinkURL string
	fallbackURL string
	logger      *zap.Logger
}

// NewHandler creates the admin surface mounted at basePath.
func NewHandler(svc *qrcode.Service, basePath, baseLinkURL, fallbackURL string, logger *zap.Logger) *Handler {
	return &Handler{
		svc:         svc,
		basePath:    basePath,
		baseLinkURL: baseLinkURL,
		fallbackURL: fallbackURL,
		logger:      logger,
	}
}

// RegisterRoutes mounts the admin page. middlewares are applied to both methods.
func (h *Handler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares...)
		r.Get(h.basePath, h.Show)
		r.Post(h.basePath, h.Submit)
	})
}

// Show lists all records. ?edit=<id> opens the inline form for one record and ?notice=
// reports the outcome of the previous submission.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := ParseViewState(query)

	p := &page{Notice: notices[query.Get("notice")]}

	h.render(r.Context(), w, http.StatusOK, p, state, nil)
}

// Submit handles one decoded form action. Successful actions redirect back to the list.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(r.Context(), w, http.StatusBadRequest, &page{Error: "Could not read the form."}, ViewState{}, nil)

		return
	}

	req, err := DecodeRequest(r.PostForm)
	if err != nil {
		h.render(r.Context(), w, http.StatusBadRequest, &page{Error: err.Error()}, ViewState{}, nil)

		return
	}

	ctx := r.Context()

	switch req := req.(type) {
	case CreateRequest:
		h.create(w, r, req)
	case UpdateRequest:
		h.update(w, r, req)
	case CancelEdit:
		h.redirect(w, r, "")
	case RenderRequest:
		if _, err := h.svc.Render(ctx, req.ID, h.baseLinkURL); err != nil {
			h.fail(ctx, w, err, ViewState{}, nil)

			return
		}

		h.redirect(w, r, "rendered")
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, req CreateRequest) {
	ctx := r.Context()

	_, err := h.svc.CreateAndRender(ctx, req.TargetURL, h.baseLinkURL)
	if err == nil {
		h.redirect(w, r, "created")

		return
	}

	var pending *qrcode.PendingError
	if errors.As(err, &pending) {
		h.redirect(w, r, "pending")

		return
	}

	if errors.Is(err, qrcode.ErrValidation) {
		p := &page{Error: err.Error(), CreateValue: req.TargetURL}
		h.render(ctx, w, http.StatusUnprocessableEntity, p, ViewState{}, nil)

		return
	}

	h.fail(ctx, w, err, ViewState{}, nil)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, req UpdateRequest) {
	ctx := r.Context()

	_, err := h.svc.UpdateTarget(ctx, req.ID, req.TargetURL)
	if err == nil {
		h.redirect(w, r, "updated")

		return
	}

	if errors.Is(err, qrcode.ErrValidation) {
		// Keep the form open with what was typed so the operator can fix it.
		h.fail(ctx, w, err, ViewState{Editing: req.ID}, &req.TargetURL)

		return
	}

	h.fail(ctx, w, err, ViewState{}, nil)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, state ViewState, editValue *string) {
	status := http.StatusInternalServerError
	msg := "Something went wrong, please try again."

	switch {
	case errors.Is(err, qrcode.ErrValidation):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	case errors.Is(err, qrcode.ErrNotFound):
		status = http.StatusNotFound
		msg = "That QR code does not exist."
	case errors.Is(err, qrcode.ErrRender):
		msg = "The image could not be rendered. The QR code stays pending."
		h.logger.Error("admin render failed", zap.Error(err))
	default:
		h.logger.Error("admin action failed", zap.Error(err))
	}

	h.render(ctx, w, status, &page{Error: msg}, state, editValue)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, notice string) {
	location := h.basePath
	if notice != "" {
		location += "?" + url.Values{"notice": {notice}}.Encode()
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handler) render(
	ctx context.Context,
	w http.ResponseWriter,
	status int,
	p *page,
	state ViewState,
	editValue *string,
) {
	p.BasePath = h.basePath
	p.FallbackURL = h.fallbackURL

	records, err := h.svc.List(ctx)
	if err != nil {
		h.logger.Error("admin list failed", zap.Error(err))

		status = http.StatusInternalServerError
		p.Error = "QR codes are unavailable right now."
	}

	p.Rows = make([]row, 0, len(records))

	for _, rec := range records {
		editing := state.ModeOf(rec.ID) == Editing

		value := rec.TargetURL
		if editing && editValue != nil {
			value = *editValue
		}

		p.Rows = append(p.Rows, row{
			ID:             rec.ID,
			Link:           qrcode.Link(h.baseLinkURL, rec.ID),
			ImageReference: rec.ImageReference,
			TargetURL:      rec.TargetURL,
			UsageCount:     rec.UsageCount,
			CreatedAt:      rec.CreatedAt,
			Editing:        editing,
			EditValue:      value,
			EditURL:        EditURL(h.basePath, rec.ID),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		h.logger.Error("admin page render failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
