package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/handler"
	"github.com/deppfellow/portfolio/internal/middleware"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/model/upload"
	"github.com/deppfellow/portfolio/internal/server"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 64 << 10

func registerProjectRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers, m *middleware.Middlewares) {
	base := handler.NewHandler(s)
	auth := m.Auth.RequireAuth
	cached := m.Cache.Cache()
	uploadLimit := m.Global.BodyLimit(s.Config.Storage.MaxUploadBytes + multipartOverhead)

	api := r.Group("/api")

	api.GET("/hello", handler.Handle(base, h.Hello.Hello, http.StatusOK, &handler.HelloRequest{}))
	api.POST("/hello", handler.Handle(base, h.Hello.EchoData, http.StatusOK, &handler.EchoRequest{}))

	projects := api.Group("/projects")
	projects.GET("", handler.Handle(base, h.Project.ListProjects, http.StatusOK, &project.ListProjectsRequest{}), cached)
	projects.GET("/:id", handler.Handle(base, h.Project.GetProject, http.StatusOK, &project.GetProjectRequest{}), cached)

	// Writes need a session; deleting also needs the admin role or the
	// explicit delete permission.
	projects.POST("", handler.Handle(base, h.Project.CreateProject, http.StatusCreated, &project.CreateProjectRequest{}), auth)
	projects.PUT("/:id", handler.Handle(base, h.Project.UpdateProject, http.StatusOK, &project.UpdateProjectRequest{}), auth)
	projects.PATCH("/:id", handler.Handle(base, h.Project.PatchProject, http.StatusOK, &project.PatchProjectRequest{}), auth)
	projects.DELETE("/:id",
		handler.HandleNoContent(base, h.Project.DeleteProject, http.StatusNoContent, &project.DeleteProjectRequest{}),
		auth, m.Auth.RequirePermission(middleware.RoleAdmin, middleware.PermissionDeleteProjects),
	)
	projects.POST("/:id/image",
		handler.Handle(base, h.Upload.UploadProjectImage, http.StatusOK, &project.UploadProjectImageRequest{}),
		auth, uploadLimit,
	)

	api.POST("/uploads",
		handler.Handle(base, h.Upload.UploadFile, http.StatusCreated, &upload.UploadFileRequest{}),
		auth, uploadLimit,
	)

	r.GET("/media/:name", handler.HandleFile(base, h.Media.ServeMedia, http.StatusOK, &upload.GetMediaRequest{}))
}
