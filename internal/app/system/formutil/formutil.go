// Package formutil decodes JSON request bodies for the API handlers.
//
// Every handler accepts one small JSON object. DecodeJSON applies a size
// cap, ignores unknown fields, and reports a user-facing error string so
// the handler can answer 400 without composing its own message.
package formutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ErrBody wraps every decoding failure. Its message is safe to show.
type ErrBody struct {
	Msg string
	Err error
}

func (e *ErrBody) Error() string { return e.Msg }
func (e *ErrBody) Unwrap() error { return e.Err }

// DecodeJSON reads r's body into dst. An empty body leaves dst untouched
// and is not an error, so endpoints with all-optional fields accept it.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return &ErrBody{Msg: "Content-Type must be application/json."}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &tooBig):
			return &ErrBody{Msg: "Request body is too large.", Err: err}
		default:
			return &ErrBody{Msg: "Request body is not valid JSON.", Err: err}
		}
	}
	if dec.More() {
		return &ErrBody{Msg: "Request body must hold a single JSON object."}
	}
	return nil
}
