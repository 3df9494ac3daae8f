package router

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/config"
	authapp "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/application"
	pginfra "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/infrastructure/postgres"
	handlers "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/interface/http"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/router/modules"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/helpers"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/mailer"
)

// Deps carries the process-wide singletons constructed in main. Modules are
// wired from it explicitly; there is no global container.
type Deps struct {
	Cfg      *config.Config
	Logger   *logrus.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	JWT      *helpers.JWTManager
	Notifier mailer.Notifier
}

// InitModules builds the repository, service and handlers, and registers all
// feature modules on the registry.
func InitModules(r *Registry, d Deps) {
	repo := pginfra.NewUserRepository(d.Pool)
	svc := authapp.NewService(repo, d.JWT, d.Notifier, d.Redis, d.Logger, d.Cfg.DefaultRole)

	authHandler := handlers.NewAuthHandler(svc, d.Logger)
	userHandler := handlers.NewUserHandler(svc, d.Logger)

	r.Add(modules.NewAuthModule(authHandler, d.Redis))
	r.Add(modules.NewUserModule(userHandler, d.JWT, d.Redis))
}
