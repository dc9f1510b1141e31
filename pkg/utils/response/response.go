// Package response defines the unified API response envelope.
package response

import (
	"net/http"
	"sync"
	"time"

	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// Response is the envelope returned by every HTTP endpoint.
type Response struct {
	// Code is the service error code, 0 on success.
	Code int `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Data carries the payload on success.
	Data any `json:"data,omitempty"`

	// RequestID echoes the request id when middleware sets one.
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the unix timestamp in milliseconds.
	Timestamp int64 `json:"timestamp"`

	httpStatus int
}

var pool = sync.Pool{
	New: func() any { return new(Response) },
}

func get() *Response {
	r := pool.Get().(*Response)
	*r = Response{Timestamp: time.Now().UnixMilli()}
	return r
}

// Release returns a Response to the pool. Callers must not touch it after.
func (r *Response) Release() {
	pool.Put(r)
}

// HTTPStatus returns the HTTP status this response should be written with.
func (r *Response) HTTPStatus() int {
	if r.httpStatus != 0 {
		return r.httpStatus
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// Success builds a successful response carrying data.
func Success(data any) *Response {
	r := get()
	r.Message = "success"
	r.Data = data
	r.httpStatus = http.StatusOK
	return r
}

// Err builds an error response from any error. Errno errors keep their code
// and HTTP status; plain errors map to the internal error code.
func Err(err error) *Response {
	r := get()
	if e := errors.FromError(err); e != nil {
		r.Code = e.Code
		r.Message = e.MessageEN
		r.httpStatus = e.HTTPStatus()
		return r
	}
	r.Code = errors.ErrInternal.Code
	r.Message = err.Error()
	r.httpStatus = http.StatusInternalServerError
	return r
}

// ErrWithData builds an error response that still carries a payload, used for
// degraded-but-successful outcomes such as partial extraction.
func ErrWithData(err error, data any) *Response {
	r := Err(err)
	r.Data = data
	return r
}
