package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/usecase"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/memory"
	apphttp "github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/interfaces/http"
	pkgjwt "github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/jwt"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/logger"
)

// buildAPI monta el router completo sobre el almacén en memoria.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	exec := inventory.NewExecutor(store, inventory.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}, nil, logger.Nop())

	app := fiber.New()
	app.Use(apphttp.RequestID())
	apphttp.Router(app, apphttp.RouterDeps{
		MaterialUC:    inventory.NewMaterialUseCase(exec, store.Materials(), language.Spanish),
		MovementUC:    inventory.NewRegisterMovementUseCase(exec, store.Materials(), store.Movements(), store.Sites()),
		ConsumptionUC: inventory.NewConsumptionUseCase(exec, store.Consumptions(), store.Sites()),
		CostUC:        inventory.NewCostUseCase(exec, store.Consumptions(), store.Sites()),
		SiteUC:        usecase.NewSiteUseCase(store.Sites()),
		JWTSecret:     testJWTSecret,
		Log:           logger.Nop(),
	})
	return app
}

func bearer(t *testing.T, accountID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testIssuer, pkgjwt.Scope{UserID: testUserID, AccountID: accountID, Role: role}, testTTL)
	require.NoError(t, err)
	return "Bearer " + tok
}

// call envía la petición y decodifica la respuesta en out (si no es nil).
func call(t *testing.T, app *fiber.App, method, path, auth string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createSite(t *testing.T, app *fiber.App, auth string) dto.SiteResponse {
	t.Helper()
	var site dto.SiteResponse
	status := call(t, app, http.MethodPost, "/api/sites", auth, fiber.Map{"name": "Jardín Dupont", "address": "12 rue des Lilas"}, &site)
	require.Equal(t, http.StatusCreated, status)
	return site
}

func createMaterial(t *testing.T, app *fiber.App, auth, name, qty, price string) dto.MaterialResponse {
	t.Helper()
	var mat dto.MaterialResponse
	status := call(t, app, http.MethodPost, "/api/materials", auth, fiber.Map{
		"name": name, "category": "product", "quantity": qty, "unit": "kg", "unit_price": price,
	}, &mat)
	require.Equal(t, http.StatusCreated, status)
	return mat
}

func TestAPI_ConsumoCostoYAnulacion(t *testing.T) {
	app := buildAPI(t)
	auth := bearer(t, testAccountID, apphttp.RoleStaff)
	site := createSite(t, app, auth)
	mat := createMaterial(t, app, auth, "Terreau", "10", "2.5")

	var link dto.ConsumptionResponse
	status := call(t, app, http.MethodPost, "/api/sites/"+site.ID+"/consumptions", auth,
		fiber.Map{"material_id": mat.ID, "quantity": "4", "date": "2024-03-01"}, &link)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2024-03-01", link.Date)
	assert.NotEmpty(t, link.MovementID)

	var cost dto.SiteMaterialCostResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/sites/"+site.ID+"/material-cost", auth, nil, &cost))
	assert.True(t, cost.Total.Equal(decimal.NewFromInt(10)), "4 × 2.5 = 10, obtenido %s", cost.Total)
	require.Len(t, cost.Lines, 1)

	var short dto.InsufficientStockResponse
	status = call(t, app, http.MethodPost, "/api/sites/"+site.ID+"/consumptions", auth,
		fiber.Map{"material_id": mat.ID, "quantity": "7"}, &short)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", short.Code)
	assert.True(t, short.Available.Equal(decimal.NewFromInt(6)))
	assert.True(t, short.Requested.Equal(decimal.NewFromInt(7)))
	assert.True(t, short.Shortfall.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "kg", short.Unit)

	var list dto.ConsumptionListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/sites/"+site.ID+"/consumptions", auth, nil, &list))
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodDelete, "/api/consumptions/"+link.ID, auth, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodDelete, "/api/consumptions/"+link.ID, auth, nil, nil))

	var after dto.MaterialResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/materials/"+mat.ID, auth, nil, &after))
	assert.True(t, after.Quantity.Equal(decimal.NewFromInt(10)), "la anulación restituye la existencia")

	var movs dto.MovementListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/inventory/movements?material_id="+mat.ID, auth, nil, &movs))
	require.Len(t, movs.Items, 2)
	assert.Equal(t, "in", movs.Items[0].Type, "el más reciente primero")
	assert.Equal(t, "consumption reversed", movs.Items[0].Reason)
	assert.Equal(t, "out", movs.Items[1].Type)
}

func TestAPI_AjusteSoloAdmin(t *testing.T) {
	app := buildAPI(t)
	staff := bearer(t, testAccountID, apphttp.RoleStaff)
	admin := bearer(t, testAccountID, apphttp.RoleAdmin)
	mat := createMaterial(t, app, staff, "Paillage", "3", "1")

	body := fiber.Map{"material_id": mat.ID, "type": "adjustment", "quantity": "8", "reason": "inventario físico"}
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/inventory/movements", staff, body, nil))

	var mov dto.MovementResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/movements", admin, body, &mov))
	assert.Equal(t, "adjustment", mov.Type)

	var rec dto.ReconciliationResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/materials/"+mat.ID+"/reconciliation", staff, nil, &rec))
	assert.True(t, rec.Consistent)
	assert.True(t, rec.Expected.Equal(decimal.NewFromInt(8)))
}

func TestAPI_SalidaSinStock_Retorna409(t *testing.T) {
	app := buildAPI(t)
	auth := bearer(t, testAccountID, apphttp.RoleStaff)
	mat := createMaterial(t, app, auth, "Sable", "2", "1")

	var short dto.InsufficientStockResponse
	status := call(t, app, http.MethodPost, "/api/inventory/movements", auth,
		fiber.Map{"material_id": mat.ID, "type": "out", "quantity": "5"}, &short)
	assert.Equal(t, http.StatusConflict, status)
	assert.True(t, short.Shortfall.Equal(decimal.NewFromInt(3)))
}

func TestAPI_EliminarMaterial(t *testing.T) {
	app := buildAPI(t)
	staff := bearer(t, testAccountID, apphttp.RoleStaff)
	admin := bearer(t, testAccountID, apphttp.RoleAdmin)
	used := createMaterial(t, app, staff, "Gravier", "10", "1")
	unused := createMaterial(t, app, staff, "Bâche", "1", "4")

	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/movements", staff,
		fiber.Map{"material_id": used.ID, "type": "out", "quantity": "1"}, nil))

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodDelete, "/api/materials/"+unused.ID, staff, nil, nil))

	var conflict dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodDelete, "/api/materials/"+used.ID, admin, nil, &conflict))
	assert.Equal(t, "CONFLICT", conflict.Code)

	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodDelete, "/api/materials/"+unused.ID, admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/materials/"+unused.ID, staff, nil, nil))
}

func TestAPI_AislamientoEntreCuentas(t *testing.T) {
	app := buildAPI(t)
	mine := bearer(t, testAccountID, apphttp.RoleStaff)
	other := bearer(t, "otra-cuenta", apphttp.RoleStaff)
	mat := createMaterial(t, app, mine, "Engrais", "5", "3")
	site := createSite(t, app, mine)

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/materials/"+mat.ID, other, nil, nil))
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/sites/"+site.ID+"/material-cost", other, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/materials/no-existe", other, nil, nil))

	var list dto.MaterialListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/materials", other, nil, &list))
	assert.Empty(t, list.Items)
}

func TestAPI_ValidacionYAutenticacion(t *testing.T) {
	app := buildAPI(t)
	auth := bearer(t, testAccountID, apphttp.RoleStaff)

	var errBody dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/materials", auth, fiber.Map{"name": "", "quantity": "1"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)

	status = call(t, app, http.MethodPost, "/api/materials", auth, fiber.Map{"name": "Clous", "unit_price": "-1"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/materials", "", nil, nil))
}

func TestAPI_CantidadesFueraDeEscala_Retorna400(t *testing.T) {
	app := buildAPI(t)
	auth := bearer(t, testAccountID, apphttp.RoleStaff)
	mat := createMaterial(t, app, auth, "Terreau", "10", "2")

	var errBody dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/inventory/movements", auth,
		fiber.Map{"material_id": mat.ID, "type": "out", "quantity": "0.00004"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)

	status = call(t, app, http.MethodPost, "/api/materials", auth,
		fiber.Map{"name": "Sable", "quantity": "100000000000000"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	var movements dto.MovementListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/inventory/movements?material_id="+mat.ID, auth, nil, &movements))
	assert.Empty(t, movements.Items)
}

func TestAPI_ListaOrdenadaYStockBajo(t *testing.T) {
	app := buildAPI(t)
	auth := bearer(t, testAccountID, apphttp.RoleStaff)
	createMaterial(t, app, auth, "érable", "1", "1")
	createMaterial(t, app, auth, "Buis", "1", "1")
	low := createMaterial(t, app, auth, "abelia", "1", "1")

	var patched dto.MaterialResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPatch, "/api/materials/"+low.ID, auth, fiber.Map{"min_quantity": "5"}, &patched))
	assert.True(t, patched.LowStock)
	assert.True(t, patched.Quantity.Equal(decimal.NewFromInt(1)), "el parche no toca la existencia")

	var list dto.MaterialListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/materials", auth, nil, &list))
	require.Len(t, list.Items, 3)
	assert.Equal(t, []string{"abelia", "Buis", "érable"}, []string{list.Items[0].Name, list.Items[1].Name, list.Items[2].Name})

	var lows dto.MaterialListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/materials/low-stock", auth, nil, &lows))
	require.Len(t, lows.Items, 1)
	assert.Equal(t, low.ID, lows.Items[0].ID)
}
