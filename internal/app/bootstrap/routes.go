// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	applicationsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/applications"
	assignmentsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/assignments"
	auditfeature "github.com/Elqomdes/hedeflynet/internal/app/features/auditlog"
	authgooglefeature "github.com/Elqomdes/hedeflynet/internal/app/features/authgoogle"
	discountsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/discounts"
	errorsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	gamificationfeature "github.com/Elqomdes/hedeflynet/internal/app/features/gamification"
	goalsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/goals"
	healthfeature "github.com/Elqomdes/hedeflynet/internal/app/features/health"
	loginfeature "github.com/Elqomdes/hedeflynet/internal/app/features/login"
	logoutfeature "github.com/Elqomdes/hedeflynet/internal/app/features/logout"
	modulesfeature "github.com/Elqomdes/hedeflynet/internal/app/features/modules"
	parentfeature "github.com/Elqomdes/hedeflynet/internal/app/features/parent"
	reportsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/reports"
	studygroupsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/studygroups"
	subscriptionsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/subscriptions"
	usersfeature "github.com/Elqomdes/hedeflynet/internal/app/features/users"
	videosessionsfeature "github.com/Elqomdes/hedeflynet/internal/app/features/videosessions"
	adaptivesvc "github.com/Elqomdes/hedeflynet/internal/app/services/adaptive"
	billingsvc "github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	gamesvc "github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	reportsvc "github.com/Elqomdes/hedeflynet/internal/app/services/reports"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	modulestore "github.com/Elqomdes/hedeflynet/internal/app/store/modules"
	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	progressstore "github.com/Elqomdes/hedeflynet/internal/app/store/progress"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/app/system/mailer"
	"github.com/Elqomdes/hedeflynet/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const siteName = "HedeflyNet"

// publicWritesPerMinute caps application submits and discount checks per IP.
const publicWritesPerMinute = 20

// BuildHandler constructs the root HTTP handler.
//
// It creates the session manager and shared services once, then mounts
// every feature router under /api (plus /auth/google, /health, /metrics).
// Services are shared so that hooks such as achievement notifications fire
// no matter which feature awarded the achievement.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on each request: role changes and deactivation apply at once.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))
	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetTokenIssuer(tokens)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: appCfg.AuditLog, Admin: appCfg.AuditLog})
	mail := mailer.New(mailer.Config{
		SendGridAPIKey: appCfg.SendGridAPIKey,
		FromEmail:      appCfg.MailFrom,
		FromName:       appCfg.MailFromName,
	}, logger)

	// Shared services.
	users := userstore.New(db)
	game := gamesvc.New(gamificationstore.New(db), nil, deps.Metrics, logger)
	notify := notifier.New(notificationstore.New(db), users, mail, siteName, logger)
	game.OnAward(achievementNotifier(users, notify, logger))
	dash := parentdash.New(db, deps.Cache, appCfg.CacheTTL, logger)
	billing := billingsvc.New(subscriptionstore.New(db), discountstore.New(db), deps.Metrics, logger)
	adaptive := adaptivesvc.New(modulestore.New(db), progressstore.New(db), game, logger)
	reports := reportsvc.NewGenerator(reportsvc.NewDataService(db), deps.Metrics, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Report-Source"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Loads the session or bearer user into context for every request.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health and metrics for load balancers and Prometheus.
	var cachePinger healthfeature.Pinger
	if deps.Redis != nil {
		if rc, ok := deps.Cache.(healthfeature.Pinger); ok {
			cachePinger = rc
		}
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, cachePinger, logger)))
	r.Handle("/metrics", deps.Metrics.Handler())

	// Google sign-in is only mounted when configured.
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.ClientURL, logger)
	if googleHandler.IsConfigured() {
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	} else {
		logger.Info("google sign-in disabled: client id/secret not set")
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.NoCache)

		// Authentication
		loginHandler := loginfeature.NewHandler(db, sessionMgr, ratelimit.NewLoginLimiter(), auditLog, errLog, logger)
		api.Mount("/auth", loginfeature.Routes(loginHandler, sessionMgr))
		api.Mount("/auth/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, auditLog, logger)))

		// Public. Anonymous writes share a per-IP budget.
		public := api.With(ratelimit.Middleware(ratelimit.New(publicWritesPerMinute, time.Minute)))
		appsHandler := applicationsfeature.NewHandler(db, mail, siteName, appCfg.ClientURL+"/login", deps.Cache, auditLog, errLog, logger)
		public.Mount("/applications", applicationsfeature.Routes(appsHandler))

		subsHandler := subscriptionsfeature.NewHandler(db, billing, deps.Cache, auditLog, errLog, logger)
		api.Mount("/plans", subscriptionsfeature.PlanRoutes(subsHandler))

		discountsHandler := discountsfeature.NewHandler(db, billing, auditLog, errLog, logger)
		public.Mount("/discounts", discountsfeature.Routes(discountsHandler))

		// Admin
		usersHandler := usersfeature.NewHandler(db, dash, deps.Cache, appCfg.CacheTTL, auditLog, errLog, logger)
		api.Mount("/admin", usersfeature.Routes(usersHandler, sessionMgr))
		api.Mount("/admin/audit-events", auditfeature.Routes(auditfeature.NewHandler(db, errLog, logger), sessionMgr))
		api.Mount("/admin/applications", applicationsfeature.AdminRoutes(appsHandler, sessionMgr))
		api.Mount("/admin/subscriptions", subscriptionsfeature.AdminRoutes(subsHandler, sessionMgr))
		api.Mount("/admin/discounts", discountsfeature.AdminRoutes(discountsHandler, sessionMgr))

		// Teacher and student work
		assignmentsHandler := assignmentsfeature.NewHandler(db, game, notify, dash, errLog, logger)
		api.Mount("/teacher/assignments", assignmentsfeature.TeacherRoutes(assignmentsHandler, sessionMgr))
		api.Mount("/student/assignments", assignmentsfeature.StudentRoutes(assignmentsHandler, sessionMgr))

		goalsHandler := goalsfeature.NewHandler(db, game, notify, dash, errLog, logger)
		api.Mount("/teacher/goals", goalsfeature.TeacherRoutes(goalsHandler, sessionMgr))
		api.Mount("/student/goals", goalsfeature.StudentRoutes(goalsHandler, sessionMgr))

		modulesHandler := modulesfeature.NewHandler(db, adaptive, errLog, logger)
		api.Mount("/teacher/modules", modulesfeature.AuthorRoutes(modulesHandler, sessionMgr))
		api.Mount("/student/modules", modulesfeature.StudentRoutes(modulesHandler, sessionMgr))

		videoHandler := videosessionsfeature.NewHandler(db, game, notify, dash, errLog, logger)
		api.Mount("/teacher/video-sessions", videosessionsfeature.TeacherRoutes(videoHandler, sessionMgr))
		api.Mount("/student/video-sessions", videosessionsfeature.StudentRoutes(videoHandler, sessionMgr))

		reportsHandler := reportsfeature.NewHandler(db, reports, errLog, logger)
		api.Mount("/teacher/reports", reportsfeature.TeacherRoutes(reportsHandler, sessionMgr))
		api.Mount("/parent/reports", reportsfeature.ParentRoutes(reportsHandler, sessionMgr))

		api.Mount("/student/subscription", subscriptionsfeature.StudentRoutes(subsHandler, sessionMgr))
		api.Mount("/student/study-groups", studygroupsfeature.Routes(studygroupsfeature.NewHandler(db, errLog, logger), sessionMgr))
		api.Mount("/student", gamificationfeature.Routes(gamificationfeature.NewHandler(db, game, errLog, logger), sessionMgr))

		// Parents
		api.Mount("/parent", parentfeature.Routes(parentfeature.NewHandler(db, dash, errLog, logger), sessionMgr))
	})

	return r, nil
}
