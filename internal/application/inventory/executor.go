package inventory

import (
	"context"
	"time"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy limita los reintentos ante ErrTransientStore.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultRetryPolicy tres reintentos con backoff exponencial desde 20ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 20 * time.Millisecond}
}

// Executor corre las escrituras compuestas (stock + movimiento + vínculo) como una unidad atómica.
// Ante una falla transitoria repite la transacción completa desde la lectura; nunca retoma a mitad.
type Executor struct {
	txRunner TxRunner
	policy   RetryPolicy
	observer Observer
	log      *logger.Logger
}

// NewExecutor construye el ejecutor. observer y log pueden ser nil.
func NewExecutor(txRunner TxRunner, policy RetryPolicy, observer Observer, log *logger.Logger) *Executor {
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultRetryPolicy().BaseDelay
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{txRunner: txRunner, policy: policy, observer: observer, log: log}
}

// Run ejecuta fn en una transacción con reintentos acotados y registra la operación.
func (e *Executor) Run(ctx context.Context, operation string, fn TxFunc) error {
	start := time.Now()
	attempt := 0
	backoff := retry.WithMaxRetries(e.policy.MaxRetries, retry.NewExponential(e.policy.BaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			e.observer.ObserveRetry(operation)
		}
		err := e.txRunner.Run(ctx, fn)
		if domain.IsRetryable(err) {
			e.log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).Msg("falla transitoria del almacén, reintentando")
			return retry.RetryableError(err)
		}
		return err
	})
	e.observer.ObserveOperation(operation, time.Since(start), err)
	return err
}

// Observe registra una operación de solo lectura.
func (e *Executor) Observe(operation string, start time.Time, err error) {
	e.observer.ObserveOperation(operation, time.Since(start), err)
}
