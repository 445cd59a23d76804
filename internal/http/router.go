package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geotours/tourhub/internal/auth"
	"github.com/geotours/tourhub/internal/cache"
	"github.com/geotours/tourhub/internal/config"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/http/handlers"
	"github.com/geotours/tourhub/internal/http/middlewares"
	"github.com/geotours/tourhub/internal/mailer"
	"github.com/geotours/tourhub/internal/observability"
	"github.com/geotours/tourhub/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, client *mongo.Client, reports cache.Store, mail mailer.Mailer, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("tourhub"))
	}

	// own registry so test routers never double-register collectors
	promReg := prometheus.NewRegistry()
	prom := observability.NewProm(promReg)

	r.Use(prom.GinHandleMiddleware())

	// health
	ping := func(ctx context.Context) error {
		if client == nil {
			return nil
		}

		return client.Ping(ctx, readpref.Primary())
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	// wire up repositories and services

	var database *mongo.Database

	if client != nil {
		database = client.Database(cfg.MongoDB)
	}

	toursRepo := mongodb.NewToursRepo(database, prom)
	usersRepo := mongodb.NewUsersRepo(database, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn)

	resp := handlers.NewResponder(cfg.Env == "dev", log)

	toursHandler := handlers.NewToursHandler(toursRepo, reports, prom, resp)
	usersHandler := handlers.NewUsersHandler(usersRepo, resp)
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, usersRepo, jwtManager, mail, cfg.ResetTokenTTL, resp)
	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	// login and reset-token requests get a tight per-IP budget
	authLimiter := middlewares.NewRateLimiter(10, time.Minute)

	limitByIP := authLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	api := r.Group("/api/v1")

	users := api.Group("/users")
	{
		users.POST("/signup", limitByIP, authHandler.SignUp)
		users.POST("/login", limitByIP, authHandler.Login)
		users.POST("/forgotPassword", limitByIP, authHandler.ForgotPassword)
		users.PATCH("/resetPassword/:token", limitByIP, authHandler.ResetPassword)

		limitByUser := authLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

		users.PATCH("/updatePassword", authMW.RequireAuth(), limitByUser, authHandler.UpdatePassword)
		users.PATCH("/updateMe", authMW.RequireAuth(), usersHandler.UpdateMe)
		users.PATCH("/deleteMe", authMW.RequireAuth(), usersHandler.DeleteMe)

		users.GET("", usersHandler.ListUsers)
		users.POST("", usersHandler.CreateUser)
		users.GET("/:id", usersHandler.NotImplemented)
		users.PATCH("/:id", usersHandler.NotImplemented)
		users.DELETE("/:id", usersHandler.NotImplemented)
	}

	tours := api.Group("/tours")
	{
		tours.GET("/top-5-cheap", handlers.AliasTopTours, toursHandler.ListTours)
		tours.GET("/tour-stats", toursHandler.TourStats)
		tours.GET("/monthly-plan/:year", toursHandler.MonthlyPlan)

		tours.GET("", authMW.RequireAuth(), toursHandler.ListTours)
		tours.POST("", toursHandler.CreateTour)
		tours.GET("/:id", toursHandler.GetTour)
		tours.PATCH("/:id", toursHandler.UpdateTour)
		tours.DELETE("/:id",
			authMW.RequireAuth(),
			middlewares.RequireRoles(user.RoleAdmin, user.RoleLeadGuide),
			toursHandler.DeleteTour,
		)
	}

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"status":  "fail",
			"message": fmt.Sprintf("Can't find %s on this server", ctx.Request.URL.Path),
		})
	})

	return r
}
