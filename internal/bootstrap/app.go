package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/auth"
	"resume-dashboard/internal/editor"
	"resume-dashboard/internal/export"
	"resume-dashboard/internal/jobs"
	"resume-dashboard/internal/overview"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/resumes"
	"resume-dashboard/internal/services/health"
	"resume-dashboard/internal/session"
	sharedauth "resume-dashboard/internal/shared/auth"
	"resume-dashboard/internal/shared/config"
	"resume-dashboard/internal/shared/server"
	"resume-dashboard/internal/shared/storage/db"
	"resume-dashboard/internal/shared/storage/object"
	localstore "resume-dashboard/internal/shared/storage/object/local"
	s3store "resume-dashboard/internal/shared/storage/object/s3"
	"resume-dashboard/internal/tailored"
	"resume-dashboard/internal/vault"
	"resume-dashboard/internal/workshops"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.Store
	API       *apiclient.Client
	Cache     *querycache.Cache
	Sessions  *session.Service
	Health    *health.Service
	Resumes   *resumes.Service
	Jobs      *jobs.Service
	Vault     *vault.Service
	Workshops *workshops.Service
	Editor    *editor.Service
	Tailored  *tailored.Service
	Export    *export.Service
	Overview  *overview.Service
}

// Build prepares dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithRateLimit(cfg.APIRateLimit, cfg.APIRateBurst),
	)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	signer, err := sharedauth.NewSigner(cfg.SessionSecret, cfg.Env, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		API:    api,
		Cache:  querycache.New(cfg.CacheStaleTime),
		Health: health.NewService(),
	}

	var sessionRepo session.Repo
	var artifactRepo export.ArtifactRepo
	if sqlDB != nil {
		sessionRepo = &session.PGRepo{DB: sqlDB}
		artifactRepo = &export.PGArtifactRepo{DB: sqlDB}
		app.Health.Add("database", sqlDB.PingContext)
	} else {
		sessionRepo = session.NewMemoryRepo()
		artifactRepo = export.NewMemoryArtifactRepo()
	}
	app.Sessions = session.NewService(sessionRepo, signer)

	app.Editor = editor.NewService(app.Cache, cfg.EditorIdleTTL)
	app.Resumes = resumes.NewService(app.Cache, app.Editor)
	app.Jobs = jobs.NewService(app.Cache)
	app.Vault = vault.NewService(app.Cache)
	app.Workshops = workshops.NewService(app.Cache, cfg.ReviewStateTTL)
	app.Tailored = tailored.NewService(app.Cache)
	app.Export = export.NewService(app.Cache, store, artifactRepo)
	app.Overview = &overview.Service{
		Cache:     app.Cache,
		Resumes:   app.Resumes,
		Jobs:      app.Jobs,
		Vault:     app.Vault,
		Workshops: app.Workshops,
		Tailored:  app.Tailored,
	}

	authHandler := auth.NewHandler(app.Sessions, api, app.Cache, cfg.CookieSecure)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Sessions:  app.Sessions,
		API:       api,
		Health:    app.Health,
		Auth:      authHandler,
		Google:    auth.NewGoogleService(authHandler, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL),
		Resumes:   resumes.NewHandler(app.Resumes),
		Jobs:      jobs.NewHandler(app.Jobs),
		Vault:     vault.NewHandler(app.Vault),
		Workshops: workshops.NewHandler(app.Workshops),
		Editor:    editor.NewHandler(app.Editor),
		Tailored:  tailored.NewHandler(app.Tailored),
		Export:    export.NewHandler(app.Export),
		Overview:  overview.NewHandler(app.Overview),
	})

	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}
