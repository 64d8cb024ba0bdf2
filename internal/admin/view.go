package admin

import (
	"net/url"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// Mode is the per-record view state of the list.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

// ViewState carries which record, if any, is being edited. It lives in the request only.
type ViewState struct {
	Editing qrcode.ID
}

// ParseViewState reads the ?edit=<id> parameter. Anything that is not a valid id means
// every record is viewed.
func ParseViewState(query url.Values) ViewState {
	id, err := qrcode.ParseID(query.Get("edit"))
	if err != nil {
		return ViewState{}
	}

	return ViewState{Editing: id}
}

// ModeOf returns the state of one record. At most one record is ever in Editing.
func (v ViewState) ModeOf(id qrcode.ID) Mode {
	if v.Editing != 0 && v.Editing == id {
		return Editing
	}

	return Viewing
}

// EditURL is the admin location that opens the inline form for id.
func EditURL(basePath string, id qrcode.ID) string {
	return basePath + "?" + url.Values{"edit": {id.String()}}.Encode()
}
