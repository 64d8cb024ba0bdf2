package handlers

import (
	"time"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// RedirectRequest is the request for resolving a per-record link.
type RedirectRequest struct {
	ID string `doc:"The record id" example:"1" path:"id"`
}

// RedirectResponse is a temporary redirect to the record target or the fallback location.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// Record is the API representation of a QR code record.
type Record struct {
	ID         uint64    `doc:"The record id"                              example:"1"                                        json:"id"`
	Link       string    `doc:"The per-record link encoded in the image"   example:"http://localhost:8888/q/1"                json:"link"`
	ImageURL   string    `doc:"The rendered image, empty while pending"    example:"/uploads/qr_codes/qr_code_1.png?v=abc"    json:"imageUrl"`
	TargetURL  string    `doc:"Where scans are redirected to"              example:"https://example.com/page"                 json:"targetUrl"`
	UsageCount uint64    `doc:"Number of resolved scans"                   example:"3"                                        json:"usageCount"`
	Status     string    `doc:"Whether the image has been rendered"        enum:"pending,rendered"                            json:"status"`
	CreatedAt  time.Time `doc:"When the record was created"                json:"createdAt"`
}

func newRecord(r *qrcode.Record, baseLinkURL string) Record {
	return Record{
		ID:         uint64(r.ID),
		Link:       qrcode.Link(baseLinkURL, r.ID),
		ImageURL:   r.ImageReference,
		TargetURL:  r.TargetURL,
		UsageCount: r.UsageCount,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

// CreateRecordRequest is the request body for creating a QR code.
type CreateRecordRequest struct {
	Body struct {
		TargetURL string `doc:"Destination URL, the configured fallback when blank" example:"https://example.com/page" json:"targetUrl,omitempty"`
	}
}

// CreateRecordResponse returns 201 with a rendered record, or 202 when the record was stored
// but its image is still pending.
type CreateRecordResponse struct {
	Status   int
	Location string `header:"Location"`
	Body     Record
}

// RecordIDRequest addresses a single record.
type RecordIDRequest struct {
	ID uint64 `doc:"The record id" example:"1" minimum:"1" path:"id"`
}

// UpdateRecordRequest changes the target of a record.
type UpdateRecordRequest struct {
	ID   uint64 `doc:"The record id" example:"1" minimum:"1" path:"id"`
	Body struct {
		TargetURL string `doc:"New destination URL" example:"https://example.com/other" json:"targetUrl"`
	}
}

// RecordResponse wraps a single record.
type RecordResponse struct {
	Body Record
}

// ListRecordsResponse lists all records, newest first.
type ListRecordsResponse struct {
	Body struct {
		Records []Record `json:"records"`
	}
}
