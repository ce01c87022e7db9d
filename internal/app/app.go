// Package app wires repositories, services, handlers and routes into one
// HTTP handler.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/collection"
	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/JAFletch-surg/dukes-club/internal/handlers"
	"github.com/JAFletch-surg/dukes-club/internal/metrics"
	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/pages"
	"github.com/JAFletch-surg/dukes-club/internal/policy"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"github.com/JAFletch-surg/dukes-club/internal/routes"
	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/JAFletch-surg/dukes-club/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps holds what main must provide. Files is nil when no bucket is
// configured; Mailer defaults to a LogMailer.
type Deps struct {
	Cfg     *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Mailer  service.Mailer
	Files   storage.FileStorage
}

// App is the wired application.
type App struct {
	Router      *gin.Engine
	Auth        service.AuthService
	unsubscribe func()
}

// Close detaches the identity event subscribers.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// New wires the application from deps.
func New(deps Deps) (*App, error) {
	cfg, db, m := deps.Cfg, deps.DB, deps.Metrics
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = service.NewLogMailer(logger.With("component", "mailer"))
	}

	// === Repositories ===
	userRepo := repository.NewUserRepository(db)
	profiles := repository.NewCollectionRepository[models.Profile](db)
	events := repository.NewCollectionRepository[models.Event](db)
	faculty := repository.NewCollectionRepository[models.Faculty](db)
	fellowships := repository.NewCollectionRepository[models.Fellowship](db)
	podcasts := repository.NewCollectionRepository[models.Podcast](db)
	questions := repository.NewCollectionRepository[models.Question](db)
	topics := repository.NewCollectionRepository[models.QuestionTopic](db)
	flags := repository.NewCollectionRepository[models.QuestionFlag](db)
	sponsors := repository.NewCollectionRepository[models.Sponsor](db)
	team := repository.NewCollectionRepository[models.TeamMember](db)
	videos := repository.NewCollectionRepository[models.Video](db)
	eventFaculty := repository.NewEventFacultyRepository(db)

	// === Identity provider ===
	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	approval := policy.NewApprovalPolicy(cfg.ApprovedDomains, cfg.ApprovedSuffixes)
	authService := service.NewAuthService(userRepo, profiles, jwtService, deps.Redis, approval, mailer, service.AuthOptions{
		SiteURL:             cfg.SiteURL,
		RequireVerification: cfg.RequireEmailVerification,
		VerificationExpiry:  cfg.VerificationExpiry,
		ResetExpiry:         cfg.ResetExpiry,
	})

	auditLogger := audit.NewLogger(repository.NewActionLogRepository(db))
	unsubscribe := authService.Subscribe(IdentityAuditor(auditLogger, m))

	// === Services ===
	catalog := service.NewCatalogService(service.CatalogRepos{
		Events:       events,
		Faculty:      faculty,
		Fellowships:  fellowships,
		Videos:       videos,
		Podcasts:     podcasts,
		Sponsors:     sponsors,
		Team:         team,
		EventFaculty: eventFaculty,
	})
	dashboard := service.NewDashboardService(events, events, videos, fellowships, profiles, sponsors, podcasts, questions, faculty)

	// === Handlers ===
	cookies := handlers.NewCookieHelper(cfg.Cookie)
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, approval, cookies, auditLogger, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry),
		Catalog:   handlers.NewCatalogHandler(catalog),
		Members:   handlers.NewMemberHandler(service.NewMemberService(profiles), auditLogger),
		Dashboard: handlers.NewDashboardHandler(dashboard),
		Content: handlers.NewContentHandler(
			service.NewEventFacultyService(events, faculty, eventFaculty),
			service.NewFlagService(flags, questions),
			auditLogger,
		),
		Upload: handlers.NewUploadHandler(deps.Files, auditLogger),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		}),
		Pages: pages.NewHandler(),
		Collections: []handlers.CollectionRoutes{
			bind(events, "starts_at", false, auditLogger, m),
			bind(faculty, "sort_order", true, auditLogger, m),
			bind(fellowships, "created_at", false, auditLogger, m),
			bind(podcasts, "created_at", false, auditLogger, m),
			bind(questions, "created_at", false, auditLogger, m),
			bind(topics, "sort_order", true, auditLogger, m),
			bind(sponsors, "sort_order", true, auditLogger, m),
			bind(team, "sort_order", true, auditLogger, m),
			bind(videos, "created_at", false, auditLogger, m),
		},
	}

	// === Router ===
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestContext(),
		middleware.RequestLogger(logger),
		m.Middleware(),
		middleware.LoadSession(service.NewSessionLoader(authService, profiles), cookies),
	)
	routes.Setup(router, h, cfg, m)

	return &App{Router: router, Auth: authService, unsubscribe: unsubscribe}, nil
}

func bind[T models.Row](repo repository.CollectionRepository[T], orderBy string, ascending bool, auditLogger *audit.Logger, m *metrics.Metrics) handlers.CollectionRoutes {
	return handlers.NewCollectionHandler(collection.NewAdapter(repo, orderBy, ascending), auditLogger, m)
}

var identityActions = map[service.IdentityEventKind]string{
	service.EventSignedIn:       models.ActionLoginSuccess,
	service.EventSignedOut:      models.ActionLogout,
	service.EventTokenRefreshed: models.ActionTokenRefresh,
}

// IdentityAuditor records identity events in the action log and in metrics.
func IdentityAuditor(auditLogger *audit.Logger, m *metrics.Metrics) service.IdentityListener {
	return func(ctx context.Context, e service.IdentityEvent) {
		if m != nil {
			m.AuthEvent(string(e.Kind))
		}
		action, ok := identityActions[e.Kind]
		if !ok {
			return
		}
		auditLogger.Log(ctx, audit.Entry{Action: action, UserID: e.UserID, ResourceType: "users", ResourceID: e.UserID})
	}
}
