package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juparave/gapaudit/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindDocumentRead:       http.StatusUnprocessableEntity,
	domain.KindProcessingTimeout:  http.StatusGatewayTimeout,
	domain.KindExtractionCall:     http.StatusBadGateway,
	domain.KindExtractionParse:    http.StatusBadGateway,
	domain.KindSchemaViolation:    http.StatusBadGateway,
	domain.KindIndexOutOfRange:    http.StatusNotFound,
	domain.KindVersionConflict:    http.StatusConflict,
	domain.KindInvalidReviewInput: http.StatusBadRequest,
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrBusy) {
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: err.Error(), Kind: "Busy"})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.AbortWithStatusJSON(http.StatusRequestTimeout, errorResponse{Error: err.Error()})
		return
	}

	kind, ok := domain.KindOf(err)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error: err.Error(),
		Kind:  string(kind),
		Raw:   domain.RawOf(err),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Kind: string(domain.KindInvalidReviewInput)})
}
