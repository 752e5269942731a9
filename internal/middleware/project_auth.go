package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// RequireProjectMember checks that the caller belongs to the project in the
// :project_id parameter and is not banned. The role is stored in the context.
func RequireProjectMember(facts repository.AccessFacts) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		role, err := facts.ProjectRole(c.Request.Context(), projectID, userID)
		if err != nil {
			apierrors.FromError(c, err)
			c.Abort()
			return
		}

		switch role {
		case models.RoleCreator, models.RoleMember:
		case models.RoleBanned:
			apierrors.Forbidden(c, "You are banned from this project")
			c.Abort()
			return
		default:
			// Return 404 instead of 403 to avoid leaking project existence
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, projectID)
		c.Set(constants.ContextKeyRole, role)
		c.Next()
	}
}

// RequireProjectCreator must run after RequireProjectMember
func RequireProjectCreator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetProjectRole(c) != models.RoleCreator {
			apierrors.Forbidden(c, "Only the project creator can perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetProjectID returns the project resolved by RequireProjectMember
func GetProjectID(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeyProject)
}

// GetProjectRole returns the caller's role resolved by RequireProjectMember
func GetProjectRole(c *gin.Context) models.ProjectRole {
	role, _ := c.Get(constants.ContextKeyRole)
	r, _ := role.(models.ProjectRole)
	return r
}
