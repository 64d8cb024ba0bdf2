package qrcode

import "time"

const TopicRenderRequested = "qrcode.render.requested"

// MaxRenderAttempts bounds how many times the worker retries a queued render.
const MaxRenderAttempts = 3

// RenderRequestedEvent asks the render worker to render a pending record.
type RenderRequestedEvent struct {
	ID          ID        `json:"id"`
	BaseLinkURL string    `json:"baseLinkUrl"`
	Reason      string    `json:"reason,omitempty"`
	Attempt     int       `json:"attempt"`
	RequestedAt time.Time `json:"requestedAt"`
}
