package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/pkg/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// GenericMessage is what clients see for upstream and internal failures.
const GenericMessage = "something went wrong, please try again later"

// Success writes a success envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope and returns it. The caller still decides whether to abort.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.JSON(status, resp)
	return resp
}

// Relayable lists errors whose message may be shown to clients even when they
// surface as upstream or internal failures.
type Relayable []error

func (r Relayable) match(err error) (error, bool) {
	for _, target := range r {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}

// Responder maps classified errors onto HTTP responses.
type Responder struct {
	Logger    *logrus.Logger
	Relayable Relayable
}

func NewResponder(logger *logrus.Logger, relayable ...error) *Responder {
	return &Responder{Logger: logger, Relayable: relayable}
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindAuthentication:
		return http.StatusUnauthorized
	case apperror.KindAuthorization, apperror.KindCSRF:
		return http.StatusForbidden
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err as an error envelope and aborts the request.
// Upstream and internal details are logged, never sent.
func (r *Responder) Fail(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := StatusFor(kind)

	var (
		message string
		details interface{}
	)
	var ae *apperror.Error
	switch kind {
	case apperror.KindUpstream, apperror.KindInternal:
		message = GenericMessage
		if target, ok := r.Relayable.match(err); ok {
			message = target.Error()
		}
		if r.Logger != nil {
			r.Logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"kind":       kind,
				"path":       c.FullPath(),
			}).Error("request failed")
		}
	default:
		if errors.As(err, &ae) {
			message = ae.Message
			if len(ae.Fields) > 0 {
				details = ae.Fields
			}
		}
		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"kind":       kind,
				"path":       c.FullPath(),
			}).Debug(err.Error())
		}
	}
	Error[any](c, status, message, details)
	c.Abort()
}
