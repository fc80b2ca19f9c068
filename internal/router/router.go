package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/teamboard-dev/teamboard/internal/handlers"
	"github.com/teamboard-dev/teamboard/internal/health"
	"github.com/teamboard-dev/teamboard/internal/metrics"
	"github.com/teamboard-dev/teamboard/internal/middleware"
	"github.com/teamboard-dev/teamboard/internal/realtime"
	"github.com/teamboard-dev/teamboard/internal/services"
)

type Deps struct {
	Users          *services.UserService
	Projects       *services.ProjectService
	Tasks          *services.TaskService
	Hub            *realtime.Hub
	Health         *health.Checker
	AllowedOrigins []string
	Metrics        metrics.Recorder
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(handlers.JSONFieldName)
	}
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}

	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	users := handlers.NewUserHandler(deps.Users, deps.Logger)
	projects := handlers.NewProjectHandler(deps.Projects, deps.Logger)
	tasks := handlers.NewTaskHandler(deps.Tasks, deps.Logger)
	ws := handlers.NewWSHandler(deps.Hub, deps.Projects, deps.Logger)

	requireAuth := middleware.AuthMiddleware(deps.Users, false)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck(deps.Health))
		api.GET("/ws", middleware.AuthMiddleware(deps.Users, true), ws.WebSocket)

		auth := api.Group("/users")
		{
			auth.POST("/register", users.Register)
			auth.POST("/login", users.Login)
			auth.GET("/me", requireAuth, users.Me)
		}

		projectRoutes := api.Group("/projects", requireAuth)
		{
			projectRoutes.POST("", projects.CreateProject)
			projectRoutes.GET("", projects.ListProjects)
			projectRoutes.GET("/:id", projects.GetProject)
			projectRoutes.PUT("/:id", projects.UpdateProject)
			projectRoutes.DELETE("/:id", projects.DeleteProject)

			projectRoutes.POST("/:id/members", projects.AddMember)
			projectRoutes.DELETE("/:id/members/:userId", projects.RemoveMember)

			projectRoutes.POST("/:id/tasks", tasks.CreateTask)
		}

		taskRoutes := api.Group("/tasks", requireAuth)
		{
			taskRoutes.PUT("/:id", tasks.UpdateTask)
		}
	}

	return r
}
