// Package metrics expone la telemetría del libro de inventario y del servidor HTTP en Prometheus.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
)

var _ inventory.Observer = (*Ledger)(nil)

// Resultados usados como etiqueta "result".
const (
	ResultOK                = "ok"
	ResultInsufficientStock = "insufficient_stock"
	ResultInvalid           = "invalid"
	ResultNotFound          = "not_found"
	ResultForbidden         = "forbidden"
	ResultConflict          = "conflict"
	ResultTransient         = "transient"
	ResultError             = "error"
)

// Ledger agrupa los colectores. Se registran en el Registerer recibido para poder aislarlos en pruebas.
type Ledger struct {
	gatherer prometheus.Gatherer

	operations        *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	retries           *prometheus.CounterVec
	insufficientStock prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registra los colectores en reg.
func New(reg *prometheus.Registry) *Ledger {
	f := promauto.With(reg)
	return &Ledger{
		gatherer: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Operaciones del libro de inventario por resultado.",
		}, []string{"operation", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duración de las operaciones del libro de inventario, reintentos incluidos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_retries_total",
			Help: "Reintentos por fallas transitorias del almacén.",
		}, []string{"operation"}),
		insufficientStock: f.NewCounter(prometheus.CounterOpts{
			Name: "ledger_insufficient_stock_total",
			Help: "Salidas o consumos rechazados por stock insuficiente.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de peticiones HTTP.",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// ObserveOperation registra el resultado y la duración de una operación.
func (l *Ledger) ObserveOperation(operation string, elapsed time.Duration, err error) {
	result := Result(err)
	l.operations.WithLabelValues(operation, result).Inc()
	l.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if result == ResultInsufficientStock {
		l.insufficientStock.Inc()
	}
}

// ObserveRetry cuenta un reintento.
func (l *Ledger) ObserveRetry(operation string) {
	l.retries.WithLabelValues(operation).Inc()
}

// Result traduce un error a la etiqueta de resultado.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrInsufficientStock):
		return ResultInsufficientStock
	case errors.Is(err, domain.ErrInvalidInput):
		return ResultInvalid
	case errors.Is(err, domain.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, domain.ErrForbidden):
		return ResultForbidden
	case errors.Is(err, domain.ErrConflict):
		return ResultConflict
	case errors.Is(err, domain.ErrTransientStore):
		return ResultTransient
	default:
		return ResultError
	}
}

// Middleware cuenta peticiones HTTP por ruta registrada (no por URL, para acotar la cardinalidad).
func (l *Ledger) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil && errors.As(err, &fe) {
			status = fe.Code
		}
		path := c.Route().Path
		method := c.Method()
		l.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		l.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone /metrics sobre fiber.
func (l *Ledger) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(l.gatherer, promhttp.HandlerOpts{}))
}
