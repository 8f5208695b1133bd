package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"github.com/vhoang/folio/internal/audit"
	"github.com/vhoang/folio/internal/auth"
	"github.com/vhoang/folio/internal/common"
	"github.com/vhoang/folio/internal/config"
	"github.com/vhoang/folio/internal/contact"
	"github.com/vhoang/folio/internal/credentials"
	"github.com/vhoang/folio/internal/handlers/api"
	"github.com/vhoang/folio/internal/mail"
	"github.com/vhoang/folio/internal/middlewares"
	"github.com/vhoang/folio/internal/portfolio"
	"github.com/vhoang/folio/internal/ratelimit"
	"github.com/vhoang/folio/internal/sessions"
	"github.com/vhoang/folio/internal/store"
	"github.com/vhoang/folio/model"
	"github.com/vhoang/folio/params"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "folio - personal portfolio backend"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitStorage(storageCfg config.StorageConfig) (store.Storage, redis.UniversalClient) {
	switch storageCfg.Backend {
	case "memory":
		return store.NewMemoryStorage(), nil
	case "redis":
		opts, err := redis.ParseURL(storageCfg.Redis.URL)
		if err != nil {
			slog.Error("Invalid redis URL", "error", err)
			os.Exit(1)
		}
		if storageCfg.Redis.PoolSize > 0 {
			opts.PoolSize = storageCfg.Redis.PoolSize
		}
		rdb := redis.NewClient(opts)
		return store.NewRedisStorage(rdb), rdb
	default:
		slog.Error("Unsupported storage backend", "backend", storageCfg.Backend)
		os.Exit(1)
		return nil, nil
	}
}

func mustInitMailSender(mailCfg config.MailConfig) mail.Sender {
	switch mailCfg.Backend {
	case "none":
		return mail.NullSender{}
	case "smtp":
		sender, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
			TLS:      mailCfg.SMTP.TLS,
			CertFile: mailCfg.SMTP.CertFile,
			KeyFile:  mailCfg.SMTP.KeyFile,
			CAFile:   mailCfg.SMTP.CAFile,
		}, mailCfg.SMTP.From)
		if err != nil {
			slog.Error("Could not initialize SMTP sender", "error", err)
			os.Exit(1)
		}
		return sender
	default:
		slog.Error("Unsupported mail backend", "backend", mailCfg.Backend)
		os.Exit(1)
		return nil
	}
}

func setupAPIRoutes(
	router fiber.Router,
	cfg *config.Config,
	authService *auth.Service,
	credStore *credentials.Store,
	auditLog *audit.Log,
	portfolioService *portfolio.Service,
	contactService *contact.Service,
) {
	cookie := sessions.CookieConfig{
		Name:     cfg.Session.CookieName,
		Secure:   cfg.Session.CookieSecure,
		HttpOnly: cfg.Session.CookieHttpOnly,
	}
	clientInfo := middlewares.ClientInfoExtractor(cfg.TrustProxyHeader)
	requireAdmin := middlewares.RequireAdmin(authService, cookie, clientInfo)

	// handlers
	var (
		adminHandler     = api.NewAdminHandler(authService, credStore, auditLog, cookie, clientInfo, cfg.SiteName, cfg.Environment)
		portfolioHandler = api.NewPortfolioHandler(portfolioService, clientInfo)
		contactHandler   = api.NewContactHandler(contactService, clientInfo, cfg.ResumePath)
	)

	// routes
	apiGroup := router.Group("/api")
	apiGroup.Get("/portfolio", portfolioHandler.GetPortfolio)
	apiGroup.Post("/contact", contactHandler.PostContact)
	apiGroup.Get("/resume", contactHandler.GetResume)

	admin := apiGroup.Group("/admin")
	admin.Post("/login", adminHandler.PostLogin)
	admin.Post("/logout", adminHandler.PostLogout)
	admin.Get("/session", adminHandler.GetSession)
	admin.Post("/settings/rotate-code", adminHandler.PostRotateCode)
	admin.Get("/settings", requireAdmin, adminHandler.GetSettings)
	admin.Post("/settings/totp/enroll", requireAdmin, adminHandler.PostTOTPEnroll)
	admin.Post("/settings/totp/verify", requireAdmin, adminHandler.PostTOTPVerify)
	admin.Delete("/settings/totp", requireAdmin, adminHandler.DeleteTOTP)
	admin.Get("/audit", requireAdmin, adminHandler.GetAudit)
	admin.Put("/portfolio", requireAdmin, portfolioHandler.PutPortfolio)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	db := mustInitDatabase(cfg.MySQL)
	storage, rdb := mustInitStorage(cfg.Storage)
	mailSender := mustInitMailSender(cfg.Mail)

	policy := credentials.DevelopmentPolicy()
	if cfg.IsProduction() {
		policy = credentials.ProductionPolicy()
	}

	// repositories
	var (
		credRepo      = credentials.NewRepository(db)
		auditRepo     = audit.NewRepository(db)
		portfolioRepo = portfolio.NewRepository(db)
		contactRepo   = contact.NewRepository(db)
	)

	// services
	var (
		auditLog         = audit.NewLog(auditRepo)
		credStore        = credentials.NewStore(credRepo, policy, cfg.Admin.TOTPIssuer, params.BcryptCost)
		tracker          = ratelimit.NewTracker(ratelimit.TrackerConfig{})
		sessionManager   = sessions.NewManager(storage, cfg.Session.MaxAge)
		authService      = auth.NewService(credStore, tracker, sessionManager, auditLog)
		portfolioService = portfolio.NewService(portfolioRepo, auditLog)
		contactService   = contact.NewService(contactRepo, mailSender, cfg.Mail.NotifyTo, auditLog, cfg.Contact.Burst, cfg.Contact.RefillEvery)
	)

	// a production install must never come up without a real admin code
	if err := credStore.Bootstrap(ctx.Context, cfg.Admin.InitialCode, cfg.IsProduction()); err != nil {
		slog.Error("Could not bootstrap admin credential", "error", err)
		return err
	}
	if err := portfolioService.Bootstrap(ctx.Context); err != nil {
		slog.Error("Could not bootstrap portfolio record", "error", err)
		return err
	}

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	setupAPIRoutes(router, cfg, authService, credStore, auditLog, portfolioService, contactService)

	janitorCtx, term := context.WithCancel(ctx.Context)
	go tracker.Janitor(janitorCtx, params.AttemptGCInterval)
	go contactService.StartJanitor(janitorCtx)

	done := make(chan struct{})
	go common.StartHealthCheckServer(janitorCtx, done, db, rdb)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
