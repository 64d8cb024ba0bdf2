package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"go.uber.org/zap"
)

// RedirectHandler resolves per-record links: it counts the scan and redirects to the target.
type RedirectHandler struct {
	store       qrcode.Repository
	fallbackURL string
	logger      *zap.Logger
}

// NewRedirectHandler creates a redirect handler. Unknown or malformed ids go to fallbackURL.
func NewRedirectHandler(store qrcode.Repository, fallbackURL string, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		store:       store,
		fallbackURL: fallbackURL,
		logger:      logger,
	}
}

// Resolve never returns an error: every outcome is a redirect. The usage counter is
// incremented before the response is produced.
func (h *RedirectHandler) Resolve(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	id, err := qrcode.ParseID(req.ID)
	if err != nil {
		return h.redirect(h.fallbackURL), nil
	}

	record, err := h.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, qrcode.ErrNotFound) {
			h.logger.Error("failed to resolve qr code",
				zap.Stringer("id", id),
				zap.Error(err),
			)
		}

		return h.redirect(h.fallbackURL), nil
	}

	count, err := h.store.IncrementUsage(ctx, id)
	if err != nil {
		h.logger.Error("failed to count qr code scan",
			zap.Stringer("id", id),
			zap.Error(err),
		)
	} else {
		h.logger.Debug("qr code resolved",
			zap.Stringer("id", id),
			zap.Uint64("usageCount", count),
		)
	}

	return h.redirect(record.TargetURL), nil
}

func (h *RedirectHandler) redirect(location string) *RedirectResponse {
	return &RedirectResponse{
		Status:       http.StatusFound,
		Location:     location,
		CacheControl: "no-store",
	}
}
