package http

import (
	"log/slog"

	"github.com/geocoder89/bloghub/internal/http/handlers"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/notifications"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const defaultMaxBodyBytes = 1 << 20

type TokenService interface {
	middlewares.TokenValidator
	handlers.TokenIssuer
}

// Deps carries everything the router wires. Users, Posts and Tokens are
// required; the rest fall back to no-ops.
type Deps struct {
	Log      *slog.Logger
	Env      string
	Users    handlers.UserStore
	Posts    handlers.PostStore
	Tokens   TokenService
	Notifier notifications.Notifier

	// nil disables /metrics and request metrics
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	ReadyChecks  map[string]handlers.Pinger
	CORSOrigins  []string
	MaxBodyBytes int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// identity is resolved once per request and never rejects; routes decide
	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	r.Use(authMW.Resolve())
	r.Use(middlewares.RequestLogger(d.Log))

	// health
	h := handlers.NewHealthHandler(d.ReadyChecks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// JSON write routes
	api := r.Group("/")
	api.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	opts := []handlers.PostsOption{}
	if d.Notifier != nil {
		opts = append(opts, handlers.WithNotifier(d.Notifier))
	}
	if d.Prom != nil {
		opts = append(opts, handlers.WithDecisionObserver(d.Prom))
	}
	postsHandler := handlers.NewPostsHandler(d.Posts, opts...)

	// public reads
	api.GET("/posts", postsHandler.ListPosts)
	api.GET("/posts/:id", postsHandler.GetPostById)

	// authenticated
	me := api.Group("/me")
	me.Use(middlewares.RequireAuth())
	me.GET("", authHandler.Me)
	me.GET("/posts", postsHandler.ListMyPosts)

	// mutations check the principal themselves so input errors rank after 401
	api.POST("/posts", postsHandler.CreatePost)
	api.PUT("/posts/:id", postsHandler.UpdatePost)
	api.POST("/posts/:id/publish", postsHandler.PublishPost)
	api.DELETE("/posts/:id", postsHandler.DeletePost)

	return r
}
