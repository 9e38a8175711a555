package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/vidsub/internal/domain/subtitles"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/usecase"
)

type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Step      string `json:"step,omitempty"`
	Retryable bool   `json:"retryable"`
}

var errBadRequest = errors.New("invalid request")

func classify(err error) (int, ErrorDetails) {
	d := ErrorDetails{Message: err.Error()}
	var (
		stepErr  *usecase.StepError
		bytesErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		d.Code = "NOT_FOUND"
		return http.StatusNotFound, d
	case errors.Is(err, session.ErrBusy):
		d.Code = "BUSY"
		d.Retryable = true
		return http.StatusConflict, d
	case errors.Is(err, usecase.ErrMissingCredential):
		d.Code = "MISSING_CREDENTIAL"
		return http.StatusUnauthorized, d
	case errors.Is(err, usecase.ErrPrecondition):
		d.Code = "PRECONDITION_FAILED"
		return http.StatusConflict, d
	case errors.Is(err, subtitles.ErrLineCountMismatch):
		d.Code = "LINE_COUNT_MISMATCH"
		return http.StatusUnprocessableEntity, d
	case errors.Is(err, usecase.ErrUnsupportedMedia):
		d.Code = "UNSUPPORTED_MEDIA"
		return http.StatusUnsupportedMediaType, d
	case errors.Is(err, usecase.ErrUploadTooLarge), errors.As(err, &bytesErr):
		d.Code = "UPLOAD_TOO_LARGE"
		return http.StatusRequestEntityTooLarge, d
	case errors.As(err, &stepErr):
		d.Code = "EXTERNAL_FAILURE"
		d.Step = stepErr.Step
		d.Retryable = true
		return http.StatusBadGateway, d
	case errors.Is(err, errBadRequest):
		d.Code = "INVALID_REQUEST"
		return http.StatusBadRequest, d
	default:
		d.Code = "INTERNAL"
		return http.StatusInternalServerError, d
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, d := classify(err)
	if status >= 500 {
		s.log.Error("request failed", "path", c.Request.URL.Path, "code", d.Code, "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: d})
}
