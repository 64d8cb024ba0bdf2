package admin

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// Request is one admin form submission, decoded once from the posted form.
type Request interface {
	action() string
}

// CreateRequest adds a new record.
type CreateRequest struct {
	TargetURL string
}

// UpdateRequest saves a new target for a record that is being edited.
type UpdateRequest struct {
	ID        qrcode.ID
	TargetURL string
}

// CancelEdit leaves the editing state without changing anything.
type CancelEdit struct {
	ID qrcode.ID
}

// RenderRequest renders the image of a record again.
type RenderRequest struct {
	ID qrcode.ID
}

func (CreateRequest) action() string { return "create" }
func (UpdateRequest) action() string { return "update" }
func (CancelEdit) action() string    { return "cancel" }
func (RenderRequest) action() string { return "render" }

// DecodeRequest selects the request variant from the form's action field.
func DecodeRequest(form url.Values) (Request, error) {
	switch action := strings.TrimSpace(form.Get("action")); action {
	case "create":
		return CreateRequest{TargetURL: form.Get("target_url")}, nil
	case "update":
		id, err := qrcode.ParseID(form.Get("id"))
		if err != nil {
			return nil, err
		}

		return UpdateRequest{ID: id, TargetURL: form.Get("target_url")}, nil
	case "cancel":
		id, err := qrcode.ParseID(form.Get("id"))
		if err != nil {
			return nil, err
		}

		return CancelEdit{ID: id}, nil
	case "render":
		id, err := qrcode.ParseID(form.Get("id"))
		if err != nil {
			return nil, err
		}

		return RenderRequest{ID: id}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", qrcode.ErrValidation, action)
	}
}
