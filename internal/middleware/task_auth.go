package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// RequireTaskAuthor lets the task's author or the project creator through.
// Must run after RequireProjectMember.
func RequireTaskAuthor(facts repository.AccessFacts) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		if GetProjectRole(c) == models.RoleCreator {
			c.Next()
			return
		}

		userID, _ := GetUserID(c)
		author, err := facts.IsTaskAuthor(c.Request.Context(), taskID, userID)
		if err != nil {
			apierrors.FromError(c, err)
			c.Abort()
			return
		}
		if !author {
			apierrors.Forbidden(c, "Only the task author can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
