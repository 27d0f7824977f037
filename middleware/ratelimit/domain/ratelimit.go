package domain

import "time"

// Key identifica o cliente limitado: usuário do concurso, API key ou IP.
type Key string

// Limiter decide se a próxima chamada da chave passa agora.
// A infra usa token bucket (golang.org/x/time/rate).
type Limiter interface {
	Allow() bool
}

// Delayer é opcional: quanto falta para o limiter liberar o próximo token.
// Quando o limiter sabe responder, o Retry-After sai mais preciso.
type Delayer interface {
	Delay() time.Duration
}

// LimiterStore entrega um limiter por chave, criando sob demanda.
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter só é preenchido quando bloqueia.
	RetryAfter time.Duration
}
