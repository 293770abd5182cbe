package router

import (
	"net/http"
	"time"

	"marketdesk/internal/application/activity"
	healthsvc "marketdesk/internal/application/health"
	"marketdesk/internal/application/workspace"
	"marketdesk/internal/config"
	"marketdesk/internal/constants"
	"marketdesk/internal/infrastructure/database"
	"marketdesk/internal/infrastructure/marketapi"
	activityhandler "marketdesk/internal/interfaces/handlers/activity"
	adminhandler "marketdesk/internal/interfaces/handlers/admin"
	authhandler "marketdesk/internal/interfaces/handlers/auth"
	healthhandler "marketdesk/internal/interfaces/handlers/health"
	leadhandler "marketdesk/internal/interfaces/handlers/leads"
	listhandler "marketdesk/internal/interfaces/handlers/listings"
	profilehandler "marketdesk/internal/interfaces/handlers/profile"
	"marketdesk/internal/middleware"
	roles "marketdesk/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const janitorInterval = time.Minute

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp wires the console. Redis and the database are optional: without
// Redis sessions live in memory only, without a database actions are not
// recorded.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               6 << 20,
		// Cookie, param and query strings end up in workspaces that outlive the request.
		Immutable: true,
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	registry := workspace.NewRegistry(workspace.Options{
		NewClient: func() *marketapi.Client {
			return marketapi.New(cfg.UpstreamURL, cfg.UpstreamTimeout, cfg.UpstreamRPS)
		},
		Debounce: cfg.SearchDebounce,
		IdleTTL:  cfg.WorkspaceIdleTTL,
	})
	registry.StartJanitor(janitorInterval)
	app.Hooks().OnShutdown(func() error {
		registry.Close()
		return nil
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(rdb))

	checker := &healthsvc.Checker{Rdb: rdb, UpstreamURL: cfg.UpstreamURL}
	if db != nil {
		checker.DB = &gormDBPinger{db: db}
	}
	hh := &healthhandler.Handlers{Checker: checker, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Post("/health/reset", hh.Reset)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	recorder := &activity.Recorder{DB: db}

	api := app.Group("/api/v1", middleware.Session(sessionCfg, rdb, registry), middleware.Feedback())

	ah := &authhandler.Handlers{Rdb: rdb, Registry: registry, Config: sessionCfg}
	authGroup := api.Group("/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Post("/register", ah.Register)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	ph := &profilehandler.Handlers{Activity: recorder}
	pg := api.Group("/profile", middleware.RequireAuth(), middleware.AuthorizePermission(constants.EditOwnProfile))
	pg.Get("/", ph.Get)
	pg.Put("/", ph.Update)
	pg.Post("/image", ph.UploadImage)

	acth := &activityhandler.Handlers{Recorder: recorder}
	api.Get("/activity", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ViewOwnActivity), acth.Recent)

	lh := &leadhandler.Handlers{Activity: recorder}
	lsh := &listhandler.Handlers{Activity: recorder}
	sg := api.Group("/seller", middleware.RequireRole(roles.Seller))
	sg.Get("/businesses/:businessId/leads", lh.List)
	sg.Post("/leads/:id/toggle", lh.Toggle)
	sg.Post("/leads/:id/accept", middleware.AuthorizePermission(constants.AnswerLeads), lh.Accept)
	sg.Post("/leads/:id/reject", middleware.AuthorizePermission(constants.AnswerLeads), lh.Reject)
	sg.Get("/leads/:id/price-entry", lh.PriceEntry)
	sg.Post("/leads/:id/mark-sold", middleware.AuthorizePermission(constants.RecordSales), lh.MarkSold)
	sg.Post("/leads/:id/mark-unsold", middleware.AuthorizePermission(constants.RecordSales), lh.MarkUnsold)
	sg.Post("/leads/:id/unmark", middleware.AuthorizePermission(constants.RecordSales), lh.Unmark)
	sg.Get("/leads/:id/invoice", lh.Invoice)
	sg.Get("/businesses/:businessId/listings", lsh.List)
	sg.Post("/listings/:id/toggle-status", middleware.AuthorizePermission(constants.ManageListings), lsh.ToggleStatus)
	sg.Delete("/listings/:id", middleware.AuthorizePermission(constants.ManageListings), lsh.Delete)

	adh := &adminhandler.Handlers{Activity: recorder, Rdb: rdb, Sessions: registry}
	adg := api.Group("/admin", middleware.RequireRole(roles.Admin))
	adg.Get("/dashboard", middleware.AuthorizePermission(constants.ViewDashboard), adh.Dashboard)
	adg.Get("/users", middleware.AuthorizePermission(constants.ManageUsers), adh.Users)
	adg.Put("/users/:id", middleware.AuthorizePermission(constants.ManageUsers), adh.UpdateUser)
	adg.Put("/users/:id/role", middleware.AuthorizePermission(constants.AssignRole), adh.ChangeRole)
	adg.Get("/users/:id/:tab", middleware.AuthorizePermission(constants.ManageUsers), adh.UserTab)
	adg.Get("/businesses", middleware.AuthorizePermission(constants.ModerateProducts), adh.Businesses)
	adg.Get("/businesses/:id/:tab", middleware.AuthorizePermission(constants.ModerateProducts), adh.BusinessTab)
	adg.Post("/products/:id/toggle-status", middleware.AuthorizePermission(constants.ModerateProducts), adh.ToggleProduct)
	adg.Get("/support", middleware.AuthorizePermission(constants.ManageSupport), adh.Support)
	adg.Post("/support/:id/resolve", middleware.AuthorizePermission(constants.ManageSupport), adh.ResolveSupport)
	adg.Delete("/support/:id", middleware.AuthorizePermission(constants.ManageSupport), adh.DeleteSupport)

	log.Info().
		Bool("redis", rdb != nil).
		Bool("database", db != nil).
		Str("upstream", cfg.UpstreamURL).
		Msg("console routes mounted")
	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
