package infra

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"contest-gateway/engine/domain"
)

// SystemClock implementa domain.Clock com time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SharedRandom é um *rand.Rand protegido por mutex, para ser usado por
// várias goroutines com uma semente conhecida.
type SharedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSharedRandom(seed uint64) *SharedRandom {
	return &SharedRandom{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *SharedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// StaticConfig entrega sempre o mesmo snapshot.
type StaticConfig domain.EngineConfig

func (c StaticConfig) Load() domain.EngineConfig { return domain.EngineConfig(c) }

// AtomicConfig permite trocar o snapshot em tempo de execução. Avaliações em
// andamento continuam com o snapshot que já carregaram.
type AtomicConfig struct {
	p atomic.Pointer[domain.EngineConfig]
}

func NewAtomicConfig(cfg domain.EngineConfig) *AtomicConfig {
	c := &AtomicConfig{}
	c.Store(cfg)
	return c
}

func (c *AtomicConfig) Load() domain.EngineConfig {
	if cfg := c.p.Load(); cfg != nil {
		return *cfg
	}
	return domain.DefaultEngineConfig()
}

func (c *AtomicConfig) Store(cfg domain.EngineConfig) {
	c.p.Store(&cfg)
}
