package qrcode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/easy-qr-codes/internal/messaging"
	"go.uber.org/zap"
)

// PendingError reports a record that was created but whose image could not be rendered.
// The record stays pending and can be rendered again with Service.Render.
type PendingError struct {
	ID  ID
	Err error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("qr code %s created but left pending: %v", e.ID, e.Err)
}

func (e *PendingError) Unwrap() error {
	return e.Err
}

// Service orchestrates record creation, rendering and edits.
type Service struct {
	store                  Repository
	renderer               Renderer
	images                 ImageStore
	fallbackURL            string
	publishRenderRequested messaging.Publish[RenderRequestedEvent]
	logger                 *zap.Logger
}

// NewService creates a record service. fallbackURL is used when a create request has a blank target.
func NewService(
	store Repository,
	renderer Renderer,
	images ImageStore,
	fallbackURL string,
	publishRenderRequested messaging.Publish[RenderRequestedEvent],
	logger *zap.Logger,
) *Service {
	return &Service{
		store:                  store,
		renderer:               renderer,
		images:                 images,
		fallbackURL:            fallbackURL,
		publishRenderRequested: publishRenderRequested,
		logger:                 logger,
	}
}

// CreateAndRender stores a new record for targetURL and renders its image, which encodes
// baseLinkURL/<id> rather than the target. On a render failure the record is kept pending,
// a render retry is queued and a *PendingError is returned.
func (s *Service) CreateAndRender(ctx context.Context, targetURL, baseLinkURL string) (*Record, error) {
	if strings.TrimSpace(targetURL) == "" {
		targetURL = s.fallbackURL
	}

	target, err := ValidateTargetURL(targetURL)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Create(ctx, target)
	if err != nil {
		return nil, err
	}

	record, err := s.Render(ctx, id, baseLinkURL)
	if err != nil {
		s.logger.Error("qr code left pending after create",
			zap.Stringer("id", id),
			zap.Error(err),
		)
		s.requestRender(ctx, id, baseLinkURL, err)

		return nil, &PendingError{ID: id, Err: err}
	}

	s.logger.Info("qr code created",
		zap.Stringer("id", id),
		zap.String("targetUrl", record.TargetURL),
	)

	return record, nil
}

// Render (re)renders the image of an existing record and attaches the new reference.
// The encoded link only depends on baseLinkURL and the id.
func (s *Service) Render(ctx context.Context, id ID, baseLinkURL string) (*Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	png, err := s.renderer.Render(Link(baseLinkURL, id), DefaultCorrection, DefaultScale)
	if err != nil {
		if !errors.Is(err, ErrRender) {
			err = fmt.Errorf("%w: %w", ErrRender, err)
		}

		return nil, err
	}

	reference, err := s.images.Save(ctx, id, png)
	if err != nil {
		return nil, fmt.Errorf("%w: save image: %w", ErrStorage, err)
	}

	if err = s.store.SetImageReference(ctx, id, reference); err != nil {
		return nil, err
	}

	record.ImageReference = reference
	record.Status = StatusRendered

	return record, nil
}

// UpdateTarget changes where a record redirects to. The image is left untouched.
func (s *Service) UpdateTarget(ctx context.Context, id ID, newURL string) (*Record, error) {
	target, err := ValidateTargetURL(newURL)
	if err != nil {
		return nil, err
	}

	if err = s.store.SetTargetURL(ctx, id, target); err != nil {
		return nil, err
	}

	s.logger.Info("qr code target updated",
		zap.Stringer("id", id),
		zap.String("targetUrl", target),
	)

	return s.store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id ID) (*Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.store.List(ctx)
}

func (s *Service) requestRender(ctx context.Context, id ID, baseLinkURL string, cause error) {
	event := &RenderRequestedEvent{
		ID:          id,
		BaseLinkURL: baseLinkURL,
		Reason:      cause.Error(),
		RequestedAt: time.Now(),
	}

	if err := s.publishRenderRequested(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("failed to queue render retry",
			zap.Stringer("id", id),
			zap.Error(err),
		)
	}
}
