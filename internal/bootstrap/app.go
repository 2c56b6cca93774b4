package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Moniqchege/resume-builder/internal/ats"
	googleauth "github.com/Moniqchege/resume-builder/internal/auth"
	"github.com/Moniqchege/resume-builder/internal/reasoner"
	openai "github.com/Moniqchege/resume-builder/internal/reasoner/openai"
	"github.com/Moniqchege/resume-builder/internal/resumes"
	"github.com/Moniqchege/resume-builder/internal/shared/config"
	"github.com/Moniqchege/resume-builder/internal/shared/server"
	"github.com/Moniqchege/resume-builder/internal/shared/storage/db"
	"github.com/Moniqchege/resume-builder/internal/shared/storage/object"
	localstore "github.com/Moniqchege/resume-builder/internal/shared/storage/object/local"
	s3store "github.com/Moniqchege/resume-builder/internal/shared/storage/object/s3"
	"github.com/Moniqchege/resume-builder/internal/users"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	ResumeRepo   resumes.Repo
	AnalysisRepo ats.Repo
	UserRepo     users.Repo

	ResumeService   *resumes.Service
	AnalysisService *ats.Service
	UserService     *users.Service

	ResumeHandler *resumes.Handler
	ATSHandler    *ats.Handler
	UserHandler   *users.Handler
	GoogleAuth    *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		ResumeHandler: app.ResumeHandler,
		ATSHandler:    app.ATSHandler,
		UserHandler:   app.UserHandler,
		GoogleAuth:    app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var resumeRepo resumes.Repo
	var analysisRepo ats.Repo
	var userRepo users.Repo

	if app.DB != nil {
		resumeRepo = &resumes.PGRepo{DB: app.DB}
		analysisRepo = &ats.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		resumeRepo = resumes.NewMemoryRepo()
		analysisRepo = ats.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	reasonerClient := reasoner.Client(reasoner.PlaceholderClient{})
	if app.Config.ReasonerProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.ReasonerModel)
		if err != nil {
			return err
		}
		reasonerClient = openaiClient
	}
	reasonerClient = reasoner.WithBreaker(reasonerClient)

	analysisSvc := ats.NewService(analysisRepo, resumeRepo, reasonerClient, app.Store, app.Config.BaselineKeywordScore)
	resumeSvc := resumes.NewService(resumeRepo, ats.SummarySource{Repo: analysisRepo}, app.Store)
	userSvc := users.NewService(userRepo)

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.ResumeRepo = resumeRepo
	app.AnalysisRepo = analysisRepo
	app.UserRepo = userRepo
	app.ResumeService = resumeSvc
	app.AnalysisService = analysisSvc
	app.UserService = userSvc
	app.ResumeHandler = resumes.NewHandler(resumeSvc)
	app.ATSHandler = ats.NewHandler(analysisSvc)
	app.UserHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	return nil
}
