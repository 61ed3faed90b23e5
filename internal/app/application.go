package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/background"
	"github.com/Mohmk10/sencours-back-sub000/internal/config"
	"github.com/Mohmk10/sencours-back-sub000/internal/handlers"
	"github.com/Mohmk10/sencours-back-sub000/internal/middleware"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/payments"
	"github.com/Mohmk10/sencours-back-sub000/internal/payments/simulator"
	"github.com/Mohmk10/sencours-back-sub000/internal/payments/stripe"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/internal/service"
	"github.com/Mohmk10/sencours-back-sub000/pkg/cache"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
)

type Application struct {
	cfg *config.Config

	db    *gorm.DB
	cache *cache.Cache

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	runner *background.Runner
	router *gin.Engine
	server *http.Server
}

type repositoryContainer struct {
	User       repository.UserRepository
	Category   repository.CategoryRepository
	Course     repository.CourseRepository
	Section    repository.SectionRepository
	Lesson     repository.LessonRepository
	Enrollment repository.EnrollmentRepository
	Progress   repository.ProgressRepository
}

type serviceContainer struct {
	Auth       *service.AuthService
	Category   *service.CategoryService
	Course     *service.CourseService
	Section    *service.SectionService
	Lesson     *service.LessonService
	Enrollment *service.EnrollmentService
	Progress   *service.ProgressService
}

type handlerContainer struct {
	Auth       *handlers.AuthHandler
	Category   *handlers.CategoryHandler
	Course     *handlers.CourseHandler
	Section    *handlers.SectionHandler
	Lesson     *handlers.LessonHandler
	Enrollment *handlers.EnrollmentHandler
	Progress   *handlers.ProgressHandler
}

func New(cfg *config.Config) (*Application, error) {
	application := &Application{cfg: cfg}

	if err := application.initDatabase(); err != nil {
		return nil, err
	}
	if err := application.initCache(); err != nil {
		return nil, err
	}
	application.initRepositories()
	application.initServices()
	application.initHandlers()
	application.initBackground()
	application.initRouter()

	return application, nil
}

func (a *Application) initBackground() {
	runner := background.NewRunner()
	runner.Add(background.Job{
		Name:     "catalog-refresh",
		Interval: 5 * time.Minute,
		Timeout:  30 * time.Second,
		Run:      a.services.Course.RefreshCatalog,
	})
	a.runner = runner
}

func (a *Application) initDatabase() error {
	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Course{},
		&models.Section{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.Progress{},
	)
	if err != nil {
		return err
	}

	a.db = db
	logger.Info("Database connected and migrated", nil)
	return nil
}

func (a *Application) initCache() error {
	enabled := a.cfg.EnableRedis && a.cfg.EnableCache
	cacheService, err := cache.NewCache(a.cfg.RedisURL, enabled)
	if err != nil {
		// A cold cache degrades the catalog read path, not correctness.
		logger.Warn("Redis unavailable, continuing without cache", map[string]interface{}{
			"error": err.Error(),
		})
		cacheService, _ = cache.NewCache("", false)
	}
	a.cache = cacheService
	return nil
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		User:       repository.NewUserRepository(a.db),
		Category:   repository.NewCategoryRepository(a.db),
		Course:     repository.NewCourseRepository(a.db),
		Section:    repository.NewSectionRepository(a.db),
		Lesson:     repository.NewLessonRepository(a.db),
		Enrollment: repository.NewEnrollmentRepository(a.db),
		Progress:   repository.NewProgressRepository(a.db),
	}
}

func (a *Application) initServices() {
	repos := a.repositories
	tokenLifetime := time.Duration(a.cfg.TokenLifetimeH) * time.Hour

	progress := service.NewProgressService(repos.Enrollment, repos.Progress)

	a.services = serviceContainer{
		Auth:     service.NewAuthService(repos.User, a.cfg.JWTSecret, tokenLifetime),
		Category: service.NewCategoryService(repos.Category),
		Course:   service.NewCourseService(repos.Course, repos.Category, repos.Section, repos.Lesson, a.cache),
		Section: service.NewSectionService(
			repos.Course, repos.Section, repos.Enrollment, progress, a.cfg.ReorderRetries),
		Lesson: service.NewLessonService(
			repos.Course, repos.Section, repos.Lesson, repos.Enrollment, progress, a.cfg.ReorderRetries),
		Enrollment: service.NewEnrollmentService(
			repos.Course, repos.Lesson, repos.Enrollment, a.paymentProvider()),
		Progress: progress,
	}
}

func (a *Application) paymentProvider() payments.Provider {
	if a.cfg.StripeSecretKey != "" {
		provider, err := stripe.NewProvider(a.cfg.StripeSecretKey, a.cfg.PaymentCurrency)
		if err == nil {
			logger.Info("Using Stripe payment provider", nil)
			return provider
		}
		logger.Warn("Stripe misconfigured, falling back to simulator", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return simulator.New(a.cfg.PaymentCurrency)
}

func (a *Application) initHandlers() {
	services := a.services
	a.handlers = handlerContainer{
		Auth:       handlers.NewAuthHandler(services.Auth),
		Category:   handlers.NewCategoryHandler(services.Category),
		Course:     handlers.NewCourseHandler(services.Course),
		Section:    handlers.NewSectionHandler(services.Section),
		Lesson:     handlers.NewLessonHandler(services.Lesson),
		Enrollment: handlers.NewEnrollmentHandler(services.Enrollment),
		Progress:   handlers.NewProgressHandler(services.Progress),
	}
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(middleware.NewRateLimiter(a.cfg.RateLimitRequests, a.cfg.RateLimitWindow).Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	h := a.handlers
	api := router.Group("/api/v1")

	// Public surface.
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/courses", h.Course.Catalog)
	api.GET("/courses/slug/:slug", h.Course.GetBySlug)
	api.GET("/categories", h.Category.List)
	api.GET("/categories/:id", h.Category.GetByID)

	// Anything below requires a valid token.
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))

	authed.GET("/auth/me", h.Auth.Me)
	authed.GET("/courses/:id", h.Course.GetContent)
	authed.GET("/courses/:id/sections", h.Section.List)
	authed.GET("/sections/:id/lessons", h.Lesson.List)

	authed.POST("/enrollments", h.Enrollment.Enroll)
	authed.GET("/enrollments", h.Enrollment.Mine)
	authed.GET("/enrollments/:id", h.Enrollment.Get)
	authed.GET("/enrollments/:id/progress", h.Progress.Report)
	authed.PUT("/enrollments/:id/lessons/:lessonId/complete", h.Progress.Complete)
	authed.PUT("/enrollments/:id/lessons/:lessonId/uncomplete", h.Progress.Uncomplete)

	// Course authoring. Ownership of the specific course is enforced in the
	// services; the middleware only gates by role.
	instructor := authed.Group("")
	instructor.Use(middleware.InstructorMiddleware())

	instructor.GET("/instructor/courses", h.Course.Mine)
	instructor.POST("/courses", h.Course.Create)
	instructor.PUT("/courses/:id", h.Course.Update)
	instructor.DELETE("/courses/:id", h.Course.Delete)
	instructor.POST("/courses/:id/publish", h.Course.Publish)
	instructor.POST("/courses/:id/archive", h.Course.Archive)

	instructor.POST("/courses/:id/sections", h.Section.Create)
	instructor.PUT("/courses/:id/sections/reorder", h.Section.Reorder)
	instructor.PUT("/sections/:id", h.Section.Update)
	instructor.DELETE("/sections/:id", h.Section.Delete)

	instructor.POST("/sections/:id/lessons", h.Lesson.Create)
	instructor.PUT("/sections/:id/lessons/reorder", h.Lesson.Reorder)
	instructor.PUT("/lessons/:id", h.Lesson.Update)
	instructor.DELETE("/lessons/:id", h.Lesson.Delete)

	admin := authed.Group("")
	admin.Use(middleware.AdminMiddleware())

	admin.POST("/categories", h.Category.Create)
	admin.PUT("/categories/:id", h.Category.Update)
	admin.DELETE("/categories/:id", h.Category.Delete)

	a.router = router
}

func (a *Application) Run() error {
	a.runner.Start(context.Background())

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Server listening", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
	})
	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.runner != nil {
		if err := a.runner.Shutdown(ctx); err != nil {
			logger.Warn("Background runner did not stop cleanly", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn("Failed to close cache", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
