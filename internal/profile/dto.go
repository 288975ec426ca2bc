package profile

import (
	"time"

	"iris-backend/internal/codec"
)

// SessionResponse is the outward-facing representation of an edit session.
type SessionResponse struct {
	SessionID    string       `json:"sessionId"`
	FileName     string       `json:"fileName"`
	PageCount    int          `json:"pageCount"`
	State        string       `json:"state"`
	PayloadState string       `json:"payloadState"`
	PayloadError string       `json:"payloadError,omitempty"`
	Profile      codec.Record `json:"profile,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	SavedAt      *time.Time   `json:"savedAt,omitempty"`
}

func toResponse(sess Session) SessionResponse {
	resp := SessionResponse{
		SessionID:    sess.ID,
		FileName:     sess.FileName,
		PageCount:    sess.PageCount,
		State:        sess.State,
		PayloadState: sess.PayloadState,
		PayloadError: sess.PayloadError,
		Profile:      sess.Record,
		CreatedAt:    sess.CreatedAt,
	}
	if !sess.SavedAt.IsZero() {
		saved := sess.SavedAt
		resp.SavedAt = &saved
	}
	return resp
}
