package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// lockMaterial bloquea la fila del material (SELECT FOR UPDATE) y valida que pertenezca a la cuenta.
func lockMaterial(ctx context.Context, repo repository.MaterialRepository, accountID, id string) (*entity.Material, error) {
	material, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return ownedMaterial(material, accountID, id)
}

func ownedMaterial(material *entity.Material, accountID, id string) (*entity.Material, error) {
	if material == nil {
		return nil, fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
	}
	if material.AccountID != accountID {
		return nil, domain.ErrForbidden
	}
	return material, nil
}

// ownedSite obtiene la obra y valida que pertenezca a la cuenta.
func ownedSite(ctx context.Context, repo repository.SiteRepository, accountID, id string) (*entity.Site, error) {
	if id == "" {
		return nil, domain.Invalid("site_id es requerido")
	}
	site, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("%w: obra %s", domain.ErrNotFound, id)
	}
	if site.AccountID != accountID {
		return nil, domain.ErrForbidden
	}
	return site, nil
}

// sortByName ordena por nombre según el idioma (sin distinguir mayúsculas).
// collate.Collator no es seguro entre goroutines: se crea uno por llamada.
func sortByName(list []*entity.Material, tag language.Tag) {
	c := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(list, func(i, j int) bool {
		return c.CompareString(list[i].Name, list[j].Name) < 0
	})
}
