package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/models"
)

// respondError translates an error into the uniform error body. Not-found
// rows map to 404; everything else goes through the error taxonomy.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "resource not found"})
		return
	}

	status := apperr.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logging.Log.WithFields(map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("request failed")
	}
	c.JSON(status, models.ErrorResponse{Error: apperr.Code(err), Message: err.Error()})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_request", Message: err.Error()})
}
