// Package response defines the JSON envelope shared by every HTTP endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/meetpoint/service-pickup/internal/repository"
)

// Body is the uniform response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine-checkable code plus a human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 with the data payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created writes a 201 with the data payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Body{
		Success: false,
		Error:   &ErrorBody{Code: string(pickup.KindMissingInput), Message: message},
	})
}

// Error maps a service error onto the HTTP status space. Resolution failures
// keep their kind as the error code; anything unrecognized becomes a 500
// without leaking internals.
func Error(c *gin.Context, err error) {
	if resErr, ok := pickup.AsResolutionError(err); ok {
		c.JSON(statusForKind(resErr.Kind), Body{
			Success: false,
			Error:   &ErrorBody{Code: string(resErr.Kind), Message: resErr.Message},
		})
		return
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		c.JSON(http.StatusConflict, Body{
			Success: false,
			Error:   &ErrorBody{Code: "conflict", Message: err.Error()},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Body{
		Success: false,
		Error:   &ErrorBody{Code: "internal", Message: "internal server error"},
	})
}

func statusForKind(kind pickup.ErrorKind) int {
	switch kind {
	case pickup.KindMissingInput:
		return http.StatusBadRequest
	case pickup.KindSessionNotFound:
		return http.StatusNotFound
	case pickup.KindUnsupportedOperation:
		return http.StatusConflict
	case pickup.KindNoCandidates, pickup.KindNoEligibleCandidate, pickup.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
