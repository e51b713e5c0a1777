// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, SES) and wires the
// identity and task modules. This is the only place that knows about ALL of
// them.
package main

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/taskforge/taskforge/pkg/config"
	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/identity/identityapi"
	"github.com/taskforge/taskforge/pkg/identity/identityinfra"
	"github.com/taskforge/taskforge/pkg/identity/identitysrv"
	"github.com/taskforge/taskforge/pkg/task/taskapi"
	"github.com/taskforge/taskforge/pkg/task/taskinfra"
	"github.com/taskforge/taskforge/pkg/task/tasksrv"
)

// Container holds shared infrastructure and the composed modules.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Redis *redis.Client

	// Identity
	Authority    identity.Authority
	Guard        *identity.Guard
	AuthHandlers *identityapi.AuthHandlers

	// Tasks
	TaskService  *tasksrv.Service
	TaskHandlers *taskapi.TaskHandlers
}

func NewContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	return c
}

func (c *Container) initInfrastructure() {
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logrus.Info("database connected")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logrus.WithError(err).Fatal("failed to connect to Redis")
	}
	logrus.Info("redis connected")
}

func (c *Container) initModules() {
	// ── Identity ─────────────────────────────────────────────────────────

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(c.Config.Email.AWSRegion))
	if err != nil {
		logrus.WithError(err).Fatal("failed to load AWS SDK config")
	}

	users := identityinfra.NewPostgresUserRepository(c.DB)
	revocations := identityinfra.NewRedisRevocationStore(c.Redis, c.Config.Auth.RefreshTokenTTL)
	limiter := identityinfra.NewRedisLoginLimiter(c.Redis,
		c.Config.Auth.LoginMaxAttempts, c.Config.Auth.LoginAttemptsTTL)
	mailer := identityinfra.NewSESMailer(ses.NewFromConfig(awsCfg),
		c.Config.Email.FromAddress, c.Config.Email.ResetURL)

	c.Authority = identitysrv.NewService(users, revocations, limiter, mailer, &c.Config.Auth)
	c.Guard = identity.NewGuard(c.Authority)
	c.AuthHandlers = identityapi.NewAuthHandlers(c.Authority)

	// ── Tasks ────────────────────────────────────────────────────────────

	taskRepo := taskinfra.NewPostgresTaskRepository(c.DB)
	c.TaskService = tasksrv.NewService(taskRepo)
	c.TaskHandlers = taskapi.NewTaskHandlers(c.TaskService)
}

func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logrus.WithError(err).Error("error closing database")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logrus.WithError(err).Error("error closing Redis")
		}
	}
}
