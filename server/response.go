package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
)

// RespondWithError writes err as an error envelope. AppErrors keep their
// status and code; anything else becomes a 500 INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	internal := apperrors.Internal(err)
	c.JSON(http.StatusInternalServerError, internal.ToResponse())
}
