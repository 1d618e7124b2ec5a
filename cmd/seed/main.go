// seed crea una cuenta de demostración (obras, materiales y un consumo) en PostgreSQL
// pasando por los casos de uso, de modo que el libro de movimientos quede coherente.
//
// Uso: go run ./cmd/seed
// La cuenta se toma de SEED_ACCOUNT_ID.
package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/usecase"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/postgres"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/config"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/logger"
)

const seedUserID = "seed"

var demoMaterials = []dto.CreateMaterialRequest{
	{Name: "Terreau universel", Category: entity.CategoryProduct, Quantity: decimal.NewFromInt(40), Unit: "sac", MinQuantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("8.90"), Supplier: "Jardiland Pro"},
	{Name: "Paillage écorce de pin", Category: entity.CategoryProduct, Quantity: decimal.NewFromInt(12), Unit: "sac", MinQuantity: decimal.NewFromInt(15), UnitPrice: decimal.RequireFromString("11.50")},
	{Name: "Buis sempervirens", Category: entity.CategoryPlant, Quantity: decimal.NewFromInt(25), Unit: "unit", MinQuantity: decimal.NewFromInt(5), UnitPrice: decimal.RequireFromString("6.20"), Location: "Pépinière"},
	{Name: "Sécateur", Category: entity.CategoryTool, Quantity: decimal.NewFromInt(4), Unit: "unit", UnitPrice: decimal.RequireFromString("34.00")},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	exec := inventory.NewExecutor(postgres.NewTxRunner(pool), inventory.RetryPolicy{
		MaxRetries: uint64(cfg.Ledger.MaxRetries),
		BaseDelay:  cfg.Ledger.RetryBase(),
	}, nil, log)
	materialRepo := postgres.NewMaterialRepository(pool)
	consumptionRepo := postgres.NewConsumptionRepository(pool)
	siteRepo := postgres.NewSiteRepository(pool)

	materialUC := inventory.NewMaterialUseCase(exec, materialRepo, language.French)
	consumptionUC := inventory.NewConsumptionUseCase(exec, consumptionRepo, siteRepo)
	costUC := inventory.NewCostUseCase(exec, consumptionRepo, siteRepo)
	siteUC := usecase.NewSiteUseCase(siteRepo)

	accountID := cfg.Seed.AccountID
	site, err := siteUC.Create(ctx, accountID, dto.CreateSiteRequest{Name: "Jardin Dupont", Address: "12 rue des Lilas, Nantes"})
	if err != nil {
		log.Fatal().Err(err).Msg("crear obra")
	}
	if _, err := siteUC.Create(ctx, accountID, dto.CreateSiteRequest{Name: "Résidence Les Tilleuls", Address: "4 allée des Chênes, Rezé"}); err != nil {
		log.Fatal().Err(err).Msg("crear obra")
	}

	created := make([]*dto.MaterialResponse, 0, len(demoMaterials))
	for _, in := range demoMaterials {
		m, err := materialUC.Create(ctx, accountID, in)
		if err != nil {
			log.Fatal().Err(err).Str("material", in.Name).Msg("crear material")
		}
		created = append(created, m)
	}

	for i, qty := range []int64{6, 3} {
		_, err := consumptionUC.Add(ctx, inventory.ConsumptionInputDTO{
			AccountID:  accountID,
			UserID:     seedUserID,
			SiteID:     site.ID,
			MaterialID: created[i].ID,
			Quantity:   decimal.NewFromInt(qty),
			Notes:      "plantation massif entrée",
		})
		if err != nil {
			log.Fatal().Err(err).Str("material", created[i].Name).Msg("registrar consumo")
		}
	}

	cost, err := costUC.SiteMaterialCost(ctx, accountID, site.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("costo de obra")
	}
	log.Info().
		Str("account_id", accountID).
		Int("materials", len(created)).
		Str("site_id", site.ID).
		Str("site_cost", cost.Total.StringFixed(2)).
		Msg("cuenta de demostración creada")
}
