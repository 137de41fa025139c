package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/metrics"
	"github.com/sangkips/tillpoint-api/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// approverName is recorded on discounts approved with the shared code.
const approverName = "supervisor"

// PasscodeAuthorizer checks the supervisor discount code against its bcrypt
// hash. Attempts are rate limited per cashier.
type PasscodeAuthorizer struct {
	hash      string
	perMinute int
	metrics   *metrics.Metrics
	log       *zap.Logger

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

// NewPasscodeAuthorizer creates an authorizer. attemptsPerMinute <= 0
// disables the limit.
func NewPasscodeAuthorizer(hash string, attemptsPerMinute int, m *metrics.Metrics, log *zap.Logger) *PasscodeAuthorizer {
	return &PasscodeAuthorizer{
		hash:      hash,
		perMinute: attemptsPerMinute,
		metrics:   m,
		log:       log,
		limiters:  make(map[uuid.UUID]*rate.Limiter),
	}
}

// For binds the authorizer to one cashier's attempt budget.
func (a *PasscodeAuthorizer) For(cashierID uuid.UUID) pos.Authorizer {
	return &cashierAuthorizer{parent: a, cashierID: cashierID}
}

func (a *PasscodeAuthorizer) limiter(cashierID uuid.UUID) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[cashierID]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(a.perMinute)), a.perMinute)
		a.limiters[cashierID] = l
	}
	return l
}

func (a *PasscodeAuthorizer) authorize(ctx context.Context, cashierID uuid.UUID, passcode string) (string, error) {
	if a.hash == "" {
		return "", apperror.NewAuthorizationError("Discount authorization is not configured")
	}
	if a.perMinute > 0 && !a.limiter(cashierID).Allow() {
		return "", apperror.NewAuthorizationError("Too many authorization attempts, try again later")
	}
	if !utils.CheckPasswordHash(passcode, a.hash) {
		a.metrics.AuthorizationDenied.Inc()
		a.log.Info("discount authorization denied", zap.String("cashier_id", cashierID.String()))
		return "", apperror.ErrInvalidPasscode
	}
	return approverName, nil
}

type cashierAuthorizer struct {
	parent    *PasscodeAuthorizer
	cashierID uuid.UUID
}

func (c *cashierAuthorizer) Authorize(ctx context.Context, passcode string) (string, error) {
	return c.parent.authorize(ctx, c.cashierID, passcode)
}
