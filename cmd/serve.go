package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mash021/meal-sharing/internal/cache"
	"github.com/mash021/meal-sharing/internal/config"
	"github.com/mash021/meal-sharing/internal/database"
	"github.com/mash021/meal-sharing/internal/handler"
	"github.com/mash021/meal-sharing/internal/memstore"
	"github.com/mash021/meal-sharing/internal/middleware"
	"github.com/mash021/meal-sharing/internal/repository"
	"github.com/mash021/meal-sharing/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

// stores bundles the persistence each service needs, whichever backend provides it.
type stores struct {
	meals        service.MealStore
	guests       service.GuestCounter
	reservations service.ReservationStore
	reviews      service.ReviewStore
	health       handler.TableLister
	close        func() error
}

func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on exit")
		mem := memstore.New()
		return &stores{
			meals:        mem.Meals(),
			guests:       mem.Meals(),
			reservations: mem.Reservations(),
			reviews:      mem.Reviews(),
			health:       mem,
			close:        func() error { return nil },
		}, nil
	}

	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL, log); err != nil {
			return nil, err
		}
	}
	db, err := database.Open(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	reservations := repository.NewReservationRepository(db)
	return &stores{
		meals:        repository.NewMealRepository(db),
		guests:       reservations,
		reservations: reservations,
		reviews:      repository.NewReviewRepository(db),
		health:       repository.NewHealthRepository(db),
		close:        db.Close,
	}, nil
}

func openCache(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		return cache.Noop{}, func() {}
	}
	r, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, rating cache disabled")
		return cache.Noop{}, func() {}
	}
	return r, func() {
		if err := r.Close(); err != nil {
			log.WithError(err).Warn("closing redis")
		}
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gin.SetMode(cfg.GinMode)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()

	ratingCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	svc := handler.Services{
		Meals:        service.NewMealService(st.meals, st.guests, ratingCache, log),
		Reservations: service.NewReservationService(st.reservations, st.meals, cfg.EnforceCapacity, log),
		Reviews:      service.NewReviewService(st.reviews, st.meals, ratingCache, cfg.CacheTTL, log),
		Health:       st.health,
	}

	routerCfg := handler.RouterConfig{
		CORSOrigins:     cfg.Origins(),
		JWTSecret:       cfg.JWTSecret,
		JWTRequiredRole: cfg.JWTRequiredRole,
		MetricsEnabled:  cfg.MetricsEnabled,
	}
	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		rl.StartCleanup(ctx, 10*time.Minute)
		routerCfg.RateLimiter = rl
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.NewRouter(log, svc, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "storage": cfg.Storage}).Info("meal sharing API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
