package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// Handlers groups the HTTP handlers served under /api
type Handlers struct {
	Projects *ProjectHandler
	Lists    *ListHandler
	Tasks    *TaskHandler
	Fields   *FieldHandler
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r gin.IRouter, h *Handlers, facts repository.AccessFacts) {
	api := r.Group("/api")
	api.Use(middleware.RequireAuth())

	projects := api.Group("/projects")
	{
		projects.POST("", h.Projects.CreateProject)
		projects.GET("", h.Projects.ListProjects)
		projects.POST("/:project_id/join", h.Projects.JoinProject)
	}

	project := projects.Group("/:project_id")
	project.Use(middleware.RequireProjectMember(facts))
	creator := middleware.RequireProjectCreator()
	{
		project.GET("", h.Projects.GetBoard)
		project.PATCH("", creator, h.Projects.UpdateProject)
		project.DELETE("", creator, h.Projects.DeleteProject)
		project.POST("/invite", creator, h.Projects.RegenerateInvite)
		project.POST("/leave", h.Projects.LeaveProject)
		project.GET("/members", h.Projects.ListMembers)
		project.DELETE("/members/:user_id", creator, h.Projects.RemoveMember)

		project.GET("/fields", h.Fields.ListFields)
		project.GET("/fields/:field_id", h.Fields.GetField)
		project.POST("/fields", creator, h.Fields.CreateFields)
		project.PATCH("/fields", creator, h.Fields.UpdateFields)
		project.DELETE("/fields", creator, h.Fields.DeleteFields)

		project.POST("/lists", h.Lists.CreateList)
		project.GET("/lists/:list_id", h.Lists.GetList)
		project.PATCH("/lists/:list_id", h.Lists.UpdateList)
		project.POST("/lists/:list_id/move", h.Lists.MoveList)
		project.DELETE("/lists/:list_id", h.Lists.DeleteList)
		project.POST("/lists/:list_id/tasks", h.Tasks.CreateTask)

		project.POST("/tasks/generate", h.Tasks.GenerateTasks)
		author := middleware.RequireTaskAuthor(facts)
		project.GET("/tasks/:task_id", h.Tasks.GetTask)
		project.PATCH("/tasks/:task_id", author, h.Tasks.UpdateTask)
		project.POST("/tasks/:task_id/move", h.Tasks.MoveTask)
		project.DELETE("/tasks/:task_id", author, h.Tasks.DeleteTask)
	}
}
