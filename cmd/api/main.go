package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/text/language"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/usecase"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/memory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/metrics"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/postgres"
	httpRouter "github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/interfaces/http"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/config"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/logger"
)

// backend agrupa el TxRunner y los repositorios de lectura del almacén elegido.
type backend struct {
	txRunner     inventory.TxRunner
	materials    repository.MaterialRepository
	movements    repository.MovementRepository
	consumptions repository.ConsumptionRepository
	sites        repository.SiteRepository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.StoreDriver).
		Msg("iniciando aplicación")

	locale, err := language.Parse(cfg.App.Locale)
	if err != nil {
		log.Warn().Err(err).Str("locale", cfg.App.Locale).Msg("locale inválido, se usa español")
		locale = language.Spanish
	}

	ctx := context.Background()
	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer store.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.New(reg)

	exec := inventory.NewExecutor(store.txRunner, inventory.RetryPolicy{
		MaxRetries: uint64(cfg.Ledger.MaxRetries),
		BaseDelay:  cfg.Ledger.RetryBase(),
	}, ledgerMetrics, log)

	materialUC := inventory.NewMaterialUseCase(exec, store.materials, locale)
	movementUC := inventory.NewRegisterMovementUseCase(exec, store.materials, store.movements, store.sites)
	consumptionUC := inventory.NewConsumptionUseCase(exec, store.consumptions, store.sites)
	costUC := inventory.NewCostUseCase(exec, store.consumptions, store.sites)
	siteUC := usecase.NewSiteUseCase(store.sites)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestID())
	app.Use(httpRouter.RequestLogger(log))
	if cfg.Metrics.Enabled {
		app.Use(ledgerMetrics.Middleware())
		app.Get("/metrics", ledgerMetrics.Handler())
	}

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Jardin Stock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Ledger.StoreDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MaterialUC:    materialUC,
		MovementUC:    movementUC,
		ConsumptionUC: consumptionUC,
		CostUC:        costUC,
		SiteUC:        siteUC,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openBackend conecta el almacén configurado. Con postgres aplica migraciones si DB_AUTO_MIGRATE=true.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Ledger.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &backend{
			txRunner:     s,
			materials:    s.Materials(),
			movements:    s.Movements(),
			consumptions: s.Consumptions(),
			sites:        s.Sites(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &backend{
		txRunner:     postgres.NewTxRunner(pool),
		materials:    postgres.NewMaterialRepository(pool),
		movements:    postgres.NewMovementRepository(pool),
		consumptions: postgres.NewConsumptionRepository(pool),
		sites:        postgres.NewSiteRepository(pool),
		close:        pool.Close,
	}, nil
}
