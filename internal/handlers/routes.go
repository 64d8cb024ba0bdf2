package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Middleware is a huma operation middleware.
type Middleware = func(ctx huma.Context, next func(huma.Context))

// RegisterRoutes registers the public redirect under /{mount}/{id} and the record API.
// auth, when not nil, guards every API operation.
func RegisterRoutes(api huma.API, mount string, redirect *RedirectHandler, records *RecordHandler, auth Middleware) {
	// GET /{mount}/{id} - Resolve a printed QR code
	huma.Register(api, huma.Operation{
		OperationID: "resolve-qr-code",
		Method:      http.MethodGet,
		Path:        "/" + mount + "/{id}",
		Summary:     "Resolve QR code",
		Description: "Counts the scan and redirects to the current target. Unknown ids go to the fallback location.",
		Tags:        []string{"Redirect"},
	}, redirect.Resolve)

	var protected huma.Middlewares
	if auth != nil {
		protected = huma.Middlewares{auth}
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-qr-code",
		Method:        http.MethodPost,
		Path:          "/api/qrcodes",
		Summary:       "Create QR code",
		Description:   "Stores a new record and renders its image. Answers 202 when the image is still pending.",
		Tags:          []string{"QR codes"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   protected,
	}, records.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-qr-codes",
		Method:      http.MethodGet,
		Path:        "/api/qrcodes",
		Summary:     "List QR codes",
		Description: "Lists every record, newest first.",
		Tags:        []string{"QR codes"},
		Middlewares: protected,
	}, records.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-qr-code",
		Method:      http.MethodGet,
		Path:        "/api/qrcodes/{id}",
		Summary:     "Get QR code",
		Tags:        []string{"QR codes"},
		Middlewares: protected,
	}, records.Get)

	huma.Register(api, huma.Operation{
		OperationID: "update-qr-code",
		Method:      http.MethodPatch,
		Path:        "/api/qrcodes/{id}",
		Summary:     "Update QR code target",
		Description: "Changes where scans are redirected. The image and usage count are kept.",
		Tags:        []string{"QR codes"},
		Middlewares: protected,
	}, records.Update)

	huma.Register(api, huma.Operation{
		OperationID: "render-qr-code",
		Method:      http.MethodPost,
		Path:        "/api/qrcodes/{id}/render",
		Summary:     "Render QR code image",
		Description: "Renders the image of a record again, typically one left pending.",
		Tags:        []string{"QR codes"},
		Middlewares: protected,
	}, records.Render)
}
