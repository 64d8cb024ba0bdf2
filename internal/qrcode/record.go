package qrcode

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrNotFound   = errors.New("qr code not found")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
	ErrRender     = errors.New("render failure")
)

// ID identifies a record. IDs are assigned by the store and never reused.
type ID uint64

// ParseID parses a path segment as a positive record id.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: id %q is not a positive integer", ErrValidation, s)
	}

	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Status tracks whether a record has an image attached yet.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRendered Status = "rendered"
)

// Record is a stored association between a target URL and its rendered QR image.
type Record struct {
	ID             ID
	ImageReference string // empty while Status is pending
	TargetURL      string
	UsageCount     uint64
	Status         Status
	CreatedAt      time.Time
}

// Link returns the per-record link encoded into the image.
func Link(baseLinkURL string, id ID) string {
	return fmt.Sprintf("%s/%s", baseLinkURL, id)
}
