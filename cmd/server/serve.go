package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yukikurage/taskboard-api/internal/cache"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/handlers"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("http_addr", serveCmd.Flags().Lookup("addr"))
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		return err
	}
	db := database.GetDB()
	if err := database.MigrateDatabase(db); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), DB: cfg.RedisDB})
	defer rdb.Close()

	var boards services.BoardCache
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, board cache disabled")
	} else {
		boards = cache.NewBoardCache(rdb, cfg.BoardCacheTTL)
	}

	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	}

	tx := repository.NewTransactor(db)
	seq := repository.NewSequencer()
	values := repository.NewFieldValueRepository()
	schema := repository.NewFieldRepository(values)
	lists := repository.NewListRepository(values)
	tasks := repository.NewTaskRepository(values)
	projects := repository.NewProjectRepository(values)

	h := &handlers.Handlers{
		Projects: handlers.NewProjectHandler(services.NewProjectService(tx, projects, schema, boards, cfg.InviteTTL)),
		Lists:    handlers.NewListHandler(services.NewListService(tx, lists, seq, boards)),
		Tasks:    handlers.NewTaskHandler(services.NewTaskService(tx, tasks, lists, schema, values, seq, boards, drafter)),
		Fields:   handlers.NewFieldHandler(services.NewFieldService(tx, schema, boards)),
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// Sessions are shared with the authentication service through Redis
	store, err := redisStore.NewStore(
		10,
		"tcp",
		cfg.RedisAddr(),
		"",
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return fmt.Errorf("failed to create Redis session store: %w", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Taskboard API is running",
		})
	})
	handlers.RegisterRoutes(r, h, repository.NewAccessFacts(db))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server starting")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
