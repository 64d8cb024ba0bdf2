package qrcode

import "context"

// ErrorCorrection is the QR error-correction level.
type ErrorCorrection int

const (
	CorrectionLow ErrorCorrection = iota
	CorrectionMedium
	CorrectionHigh
	CorrectionHighest
)

const (
	// DefaultCorrection and DefaultScale are what every record is rendered with.
	DefaultCorrection = CorrectionLow
	DefaultScale      = 10
)

// Renderer turns text into PNG image bytes.
type Renderer interface {
	Render(text string, level ErrorCorrection, scale int) ([]byte, error)
}

// ImageStore persists rendered images and returns a public reference to them.
type ImageStore interface {
	Save(ctx context.Context, id ID, png []byte) (reference string, err error)
}
