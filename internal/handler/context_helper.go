package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/middleware"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// teacherID returns the authenticated teacher or writes 401 and reports false.
func teacherID(c *gin.Context) (string, bool) {
	claims, ok := middleware.Claims(c)
	if !ok || claims.TeacherID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.TeacherID, true
}

func invalidPayload(err error, message string) error {
	return appErrors.Invalid(err, message)
}
