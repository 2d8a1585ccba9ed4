package formflow

import (
	"net/http"
	"time"
)

// Request is a call to the remote data service.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header
}

// RequestRef correlates a response with the action that caused it. FieldID
// names the field an options request populates, or the field whose created
// options a submission append stores.
type RequestRef struct {
	ID       string
	Origin   Action
	FieldID  string
	IssuedAt time.Time
}

// OriginKind returns the kind of the originating action.
func (r RequestRef) OriginKind() Kind {
	if r.Origin == nil {
		return KindUnknown
	}
	return r.Origin.Kind()
}

// NewGet builds a body-less GET request.
func NewGet(url string) Request {
	return Request{Method: http.MethodGet, URL: url}
}

// NewPostJSON builds a POST request carrying an encoded JSON body.
func NewPostJSON(url string, body []byte) Request {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Request{Method: http.MethodPost, URL: url, Body: body, Header: h}
}
