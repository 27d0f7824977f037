package ratelimit

import (
	"net/http"
	"time"

	"contest-gateway/middleware/ratelimit/application"
	"contest-gateway/middleware/ratelimit/domain"
	"contest-gateway/middleware/ratelimit/infra"

	"github.com/gin-gonic/gin"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo padrão de tamanho Max.
	Pool domain.SlotPool
}

// ConcurrencyMiddleware limita quantas requisições o handler processa ao
// mesmo tempo. Max <= 0 sem Pool desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) gin.HandlerFunc {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(c *gin.Context) {
		release, ok := svc.Acquire(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(opts.RejectStatus, gin.H{"error": rejectText(opts.RejectStatus)})
			return
		}
		defer release()

		c.Next()
	}
}
