package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/server/handlers"
)

// Routes groups the handlers and the guards mounted by New.
type Routes struct {
	Users        *handlers.UserHandler
	Flocks       *handlers.FlockHandler
	Tasks        *handlers.TaskHandler
	Stats        *handlers.StatsHandler
	SummaryPages *handlers.SummaryPageHandler

	// Authenticate resolves the caller of every /api route.
	Authenticate gin.HandlerFunc
	// RequireFlock guards /api/flocks/:flockID routes.
	RequireFlock gin.HandlerFunc
}

// New wires the Gin engine with required routes and middlewares.
func New(routes Routes, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/summary/:flockID/:month/:year", routes.SummaryPages.Page)
	r.GET("/summary-images/:file", routes.SummaryPages.Image)

	api := r.Group("/api", routes.Authenticate)
	api.GET("/me", routes.Users.Me)
	api.PUT("/me/default-flock", routes.Users.SetDefaultFlock)
	api.PUT("/me/secondary-identity", routes.Users.LinkIdentity)
	api.GET("/notifications", routes.Tasks.ListNotifications)
	api.POST("/notifications/:notificationID/read", routes.Tasks.MarkNotificationRead)
	api.GET("/flocks", routes.Flocks.ListFlocks)
	api.POST("/flocks", routes.Flocks.CreateFlock)

	flock := api.Group("/flocks/:flockID", routes.RequireFlock)
	flock.GET("", routes.Flocks.GetFlock)
	flock.PUT("", routes.Flocks.UpdateFlock)
	flock.DELETE("", routes.Flocks.DeleteFlock)

	flock.GET("/breeds", routes.Flocks.ListBreeds)
	flock.POST("/breeds", routes.Flocks.CreateBreed)
	flock.PUT("/breeds/:breedID", routes.Flocks.UpdateBreed)
	flock.DELETE("/breeds/:breedID", routes.Flocks.DeleteBreed)

	flock.GET("/logs", routes.Flocks.ListEggLogs)
	flock.POST("/logs", routes.Flocks.CreateEggLog)
	flock.DELETE("/logs/:logID", routes.Flocks.DeleteEggLog)

	flock.GET("/expenses", routes.Flocks.ListExpenses)
	flock.POST("/expenses", routes.Flocks.CreateExpense)
	flock.DELETE("/expenses/:expenseID", routes.Flocks.DeleteExpense)

	flock.GET("/tasks", routes.Tasks.ListTasks)
	flock.POST("/tasks", routes.Tasks.CreateTask)
	flock.PUT("/tasks/:taskID", routes.Tasks.UpdateTask)
	flock.DELETE("/tasks/:taskID", routes.Tasks.DeleteTask)
	flock.POST("/tasks/:taskID/complete", routes.Tasks.CompleteTask)

	flock.GET("/stats/trend", routes.Stats.Trend)
	flock.GET("/stats/breeds", routes.Stats.Breeds)
	flock.GET("/stats/monthly", routes.Stats.Monthly)
	flock.GET("/stats/summary", routes.Stats.Summary)
	flock.POST("/summary/render", routes.Stats.Render)

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
