package qrcode

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/easy-qr-codes/internal/messaging"
	"go.uber.org/zap"
)

// NewRenderHandler returns the render worker's message handler. Records that are already
// rendered or no longer exist are acknowledged. Any other failure, including the store being
// unreachable, is re-queued with the attempt incremented until MaxRenderAttempts is reached,
// after which the record stays pending. The handler never asks for redelivery, so a failing
// dependency cannot spin a message.
func NewRenderHandler(
	svc *Service,
	publish messaging.Publish[RenderRequestedEvent],
	logger *zap.Logger,
) messaging.Handler[RenderRequestedEvent] {
	retry := func(ctx context.Context, event *RenderRequestedEvent, cause error) error {
		next := *event
		next.Attempt++
		next.Reason = cause.Error()
		next.RequestedAt = time.Now()

		if next.Attempt >= MaxRenderAttempts {
			logger.Error("giving up on qr code render",
				zap.Stringer("id", event.ID),
				zap.Int("attempts", next.Attempt),
				zap.Error(cause),
			)

			return nil
		}

		logger.Warn("qr code render failed, re-queueing",
			zap.Stringer("id", event.ID),
			zap.Int("attempt", next.Attempt),
			zap.Error(cause),
		)

		if err := publish(ctx, &next); err != nil {
			logger.Error("failed to re-queue qr code render, record stays pending",
				zap.Stringer("id", event.ID),
				zap.Error(err),
			)
		}

		return nil
	}

	return func(ctx context.Context, event *RenderRequestedEvent) error {
		record, err := svc.Get(ctx, event.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				logger.Warn("render requested for unknown qr code", zap.Stringer("id", event.ID))

				return nil
			}

			return retry(ctx, event, err)
		}

		if record.Status == StatusRendered {
			return nil
		}

		if _, err = svc.Render(ctx, event.ID, event.BaseLinkURL); err != nil {
			return retry(ctx, event, err)
		}

		logger.Info("pending qr code rendered",
			zap.Stringer("id", event.ID),
			zap.Int("attempt", event.Attempt+1),
		)

		return nil
	}
}
