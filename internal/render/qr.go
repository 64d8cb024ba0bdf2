package render

import (
	"fmt"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
	goqrcode "github.com/skip2/go-qrcode"
)

// QRRenderer encodes text as a PNG QR code.
type QRRenderer struct{}

// NewQRRenderer creates a PNG QR code renderer.
func NewQRRenderer() *QRRenderer {
	return &QRRenderer{}
}

// Render encodes text at the given error-correction level. Each QR module is scale pixels wide
// and the image is just large enough for the code plus its quiet zone.
func (r *QRRenderer) Render(text string, level qrcode.ErrorCorrection, scale int) ([]byte, error) {
	if scale < 1 {
		return nil, fmt.Errorf("%w: scale must be positive, got %d", qrcode.ErrRender, scale)
	}

	q, err := goqrcode.New(text, recoveryLevel(level))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", qrcode.ErrRender, err)
	}

	// A negative size asks the encoder for a variable-sized image at -size pixels per module.
	png, err := q.PNG(-scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", qrcode.ErrRender, err)
	}

	return png, nil
}

func recoveryLevel(level qrcode.ErrorCorrection) goqrcode.RecoveryLevel {
	switch level {
	case qrcode.CorrectionMedium:
		return goqrcode.Medium
	case qrcode.CorrectionHigh:
		return goqrcode.High
	case qrcode.CorrectionHighest:
		return goqrcode.Highest
	default:
		return goqrcode.Low
	}
}

var _ qrcode.Renderer = (*QRRenderer)(nil)
