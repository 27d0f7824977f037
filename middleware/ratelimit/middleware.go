package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"contest-gateway/middleware/ratelimit/application"
	"contest-gateway/middleware/ratelimit/domain"

	"github.com/gin-gonic/gin"
)

// StatusEnhanceYourCalm é o status padrão de rejeição por taxa.
const StatusEnhanceYourCalm = 420

type KeyFunc func(c *gin.Context) string

type Options struct {
	Store domain.LimiterStore
	KeyFn KeyFunc
	// KeyQuery identifica o cliente por um parâmetro da query (ex.: "user").
	KeyQuery            string
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// DefaultKeyFunc identifica o cliente nesta ordem: query, header, primeiro IP
// do X-Forwarded-For (se confiável) e por fim o IP remoto.
func DefaultKeyFunc(keyQuery, keyHeader string, trustXFF bool) KeyFunc {
	return func(c *gin.Context) string {
		if keyQuery != "" {
			if v := strings.TrimSpace(c.Query(keyQuery)); v != "" {
				return keyQuery + ":" + v
			}
		}
		if keyHeader != "" {
			if v := strings.TrimSpace(c.GetHeader(keyHeader)); v != "" {
				return v
			}
		}
		if trustXFF {
			if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}
		if ip := c.RemoteIP(); ip != "" {
			return ip
		}
		return "unknown"
	}
}

func Middleware(opts Options) gin.HandlerFunc {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = StatusEnhanceYourCalm
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyQuery, opts.KeyHeader, opts.TrustXForwardedFor)
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(c *gin.Context) {
		key := opts.KeyFn(c)

		if opts.AddRateLimitHeaders {
			c.Header("X-RateLimit-Key", key)
			if ri, ok := opts.Store.(rateInfo); ok {
				c.Header("X-RateLimit-RPS", formatFloat(ri.RPS()))
				c.Header("X-RateLimit-Burst", formatInt(ri.Burst()))
			}
		}

		dec := svc.Decide(domain.Key(key))
		if !dec.Allowed {
			c.Header("Retry-After", formatSeconds(dec.RetryAfter))
			c.AbortWithStatusJSON(opts.RejectStatus, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func rejectText(status int) string {
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return "busy"
}
