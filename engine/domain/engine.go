package domain

import (
	"fmt"
	"time"
)

// Clock é a fonte de tempo de parede. Injetável para testes determinísticos.
type Clock interface {
	Now() time.Time
}

// RandomSource devolve amostras uniformes em [0, 1).
// *rand.Rand de math/rand/v2 satisfaz esta interface.
type RandomSource interface {
	Float64() float64
}

// PolicyConfig parametriza a política de alocação.
//
// TrafficRatio é quantas requisições se espera por prêmio concedido (≈100).
// O fator de correção fica sempre em (MinBoost, MaxBoost) e vale
// sqrt(MinBoost*MaxBoost) quando o prêmio está exatamente no cronograma.
type PolicyConfig struct {
	TrafficRatio float64
	MinBoost     float64
	MaxBoost     float64
	Steepness    float64
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		TrafficRatio: 100,
		MinBoost:     0.02,
		MaxBoost:     50,
		Steepness:    10,
	}
}

func (c PolicyConfig) Validate() error {
	if c.TrafficRatio <= 0 {
		return fmt.Errorf("%w: traffic ratio must be > 0", ErrInvalidConfig)
	}
	if c.MinBoost <= 0 || c.MinBoost > 1 {
		return fmt.Errorf("%w: min boost must be in (0, 1]", ErrInvalidConfig)
	}
	if c.MaxBoost < 1 {
		return fmt.Errorf("%w: max boost must be >= 1", ErrInvalidConfig)
	}
	if c.Steepness < 0 {
		return fmt.Errorf("%w: steepness must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// EngineConfig é o snapshot imutável carregado uma vez por avaliação.
//
// UserDailyCap é o WMAX; <= 0 desliga o limite por usuário.
// CommitTimeout limita o trabalho feito depois de entrar no escopo.
type EngineConfig struct {
	Policy        PolicyConfig
	UserDailyCap  int
	Location      *time.Location
	CommitTimeout time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Policy:        DefaultPolicyConfig(),
		UserDailyCap:  3,
		Location:      time.UTC,
		CommitTimeout: 5 * time.Second,
	}
}

func (c EngineConfig) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidConfig)
	}
	return nil
}

// UserCapEnabled diz se o portão por usuário se aplica a userID.
func (c EngineConfig) UserCapEnabled(userID string) bool {
	return userID != "" && c.UserDailyCap > 0
}

// ConfigSource entrega o snapshot vigente.
type ConfigSource interface {
	Load() EngineConfig
}

// Decision detalha como a probabilidade foi obtida. Útil para debug e logs.
type Decision struct {
	Probability float64 `json:"probability"`
	Base        float64 `json:"base"`
	Factor      float64 `json:"factor"`
	Deficit     float64 `json:"deficit"`
	Fraction    float64 `json:"fraction"`
	Remaining   int     `json:"remaining"`
	WinsSoFar   int     `json:"wins_so_far"`
	UserWins    int     `json:"user_wins"`
	UserCapped  bool    `json:"user_capped"`
}

// EvaluateResult é o retorno de uma avaliação. Prize só é preenchido quando Win.
type EvaluateResult struct {
	Win      bool
	Prize    *PrizeInfo
	Record   *WinRecord
	Day      Day
	Decision Decision
}
