// Package httputils bridges the service error model onto gin responses.
package httputils

import (
	"github.com/gin-gonic/gin"

	"github.com/loaddesk/loaddesk/pkg/utils/response"
)

// requestIDKey matches the header/context key used by upstream proxies.
const requestIDKey = "X-Request-ID"

// WriteResponse writes a unified response. When err is nil the data payload
// is wrapped in a success envelope, otherwise the Errno (or a generic
// internal error) decides code and status.
func WriteResponse(c *gin.Context, err error, data any) {
	var r *response.Response
	if err != nil {
		r = response.Err(err)
	} else {
		r = response.Success(data)
	}
	defer r.Release()

	if rid := c.GetHeader(requestIDKey); rid != "" {
		r.RequestID = rid
	}

	c.JSON(r.HTTPStatus(), r)
}

// WriteDegraded writes an error envelope that still carries data, used for
// partial results that should not look like hard failures.
func WriteDegraded(c *gin.Context, err error, data any) {
	r := response.ErrWithData(err, data)
	defer r.Release()

	if rid := c.GetHeader(requestIDKey); rid != "" {
		r.RequestID = rid
	}

	c.JSON(r.HTTPStatus(), r)
}
