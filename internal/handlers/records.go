package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"go.uber.org/zap"
)

// RecordHandler exposes the record service as a JSON API.
type RecordHandler struct {
	svc         *qrcode.Service
	baseLinkURL string
	logger      *zap.Logger
}

// NewRecordHandler creates a record API handler. baseLinkURL is the prefix of every per-record link.
func NewRecordHandler(svc *qrcode.Service, baseLinkURL string, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		svc:         svc,
		baseLinkURL: baseLinkURL,
		logger:      logger,
	}
}

func (h *RecordHandler) Create(ctx context.Context, req *CreateRecordRequest) (*CreateRecordResponse, error) {
	record, err := h.svc.CreateAndRender(ctx, req.Body.TargetURL, h.baseLinkURL)
	if err != nil {
		var pending *qrcode.PendingError
		if !errors.As(err, &pending) {
			return nil, h.toHTTPError(err, "failed to create qr code")
		}

		// The record exists without an image; report it so the operator can retry the render.
		record, err = h.svc.Get(context.WithoutCancel(ctx), pending.ID)
		if err != nil {
			return nil, h.toHTTPError(err, "failed to create qr code")
		}

		return h.created(http.StatusAccepted, record), nil
	}

	return h.created(http.StatusCreated, record), nil
}

func (h *RecordHandler) List(ctx context.Context, _ *struct{}) (*ListRecordsResponse, error) {
	records, err := h.svc.List(ctx)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to list qr codes")
	}

	resp := &ListRecordsResponse{}
	resp.Body.Records = make([]Record, 0, len(records))

	for _, r := range records {
		resp.Body.Records = append(resp.Body.Records, newRecord(r, h.baseLinkURL))
	}

	return resp, nil
}

func (h *RecordHandler) Get(ctx context.Context, req *RecordIDRequest) (*RecordResponse, error) {
	record, err := h.svc.Get(ctx, qrcode.ID(req.ID))
	if err != nil {
		return nil, h.toHTTPError(err, "failed to get qr code")
	}

	return &RecordResponse{Body: newRecord(record, h.baseLinkURL)}, nil
}

func (h *RecordHandler) Update(ctx context.Context, req *UpdateRecordRequest) (*RecordResponse, error) {
	record, err := h.svc.UpdateTarget(ctx, qrcode.ID(req.ID), req.Body.TargetURL)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to update qr code")
	}

	return &RecordResponse{Body: newRecord(record, h.baseLinkURL)}, nil
}

func (h *RecordHandler) Render(ctx context.Context, req *RecordIDRequest) (*RecordResponse, error) {
	record, err := h.svc.Render(ctx, qrcode.ID(req.ID), h.baseLinkURL)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to render qr code")
	}

	return &RecordResponse{Body: newRecord(record, h.baseLinkURL)}, nil
}

func (h *RecordHandler) created(status int, record *qrcode.Record) *CreateRecordResponse {
	body := newRecord(record, h.baseLinkURL)

	return &CreateRecordResponse{
		Status:   status,
		Location: body.Link,
		Body:     body,
	}
}

func (h *RecordHandler) toHTTPError(err error, msg string) error {
	switch {
	case errors.Is(err, qrcode.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, qrcode.ErrNotFound):
		return huma.Error404NotFound("qr code not found")
	default:
		h.logger.Error(msg, zap.Error(err))

		return huma.Error500InternalServerError(msg)
	}
}
