package gateway

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Options configure the gateway engine.
type Options struct {
	AllowOrigins []string
}

// NewRouter wires the action routes onto a gin engine.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	// Numeric ids in request bodies can exceed float64 precision.
	gin.EnableJsonDecoderUseNumber()
	router := gin.New()
	router.Use(gin.Recovery(), requestLog())

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8080"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health)

	topicGroup := router.Group("/topics/:id")
	{
		topicGroup.GET("", h.TopicOverview)
		topicGroup.POST("/merge", h.MergeReply)
		topicGroup.POST("/merge-jobs", h.CreateMergeJob)
		topicGroup.POST("/merge-jobs/:jobId/apply", h.ApplyMergeJob)
		topicGroup.POST("/votes", h.VoteTopic)
		topicGroup.POST("/solution", h.SetSolution)
		topicGroup.POST("/wiki", h.PublishRevision)
	}

	postGroup := router.Group("/posts/:id")
	{
		postGroup.POST("/votes", h.VotePost)
	}

	return router
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		slog.Info("gateway: request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", id,
			"duration", time.Since(start),
		)
	}
}
