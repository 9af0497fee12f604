package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hyeonu91/schoolreserve/internal/domain"
)

// writeError translates domain sentinels into HTTP status codes. Anything
// unrecognized, including ErrDataIntegrity, is reported as an internal error
// without leaking details.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSlotTaken),
		errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrCapacityUnavailable),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
