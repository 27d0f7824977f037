package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicyConfig().Validate())

	cases := map[string]PolicyConfig{
		"zero ratio":       {TrafficRatio: 0, MinBoost: 0.1, MaxBoost: 10, Steepness: 4},
		"min boost zero":   {TrafficRatio: 100, MinBoost: 0, MaxBoost: 10, Steepness: 4},
		"min boost over 1": {TrafficRatio: 100, MinBoost: 2, MaxBoost: 10, Steepness: 4},
		"max boost below1": {TrafficRatio: 100, MinBoost: 0.1, MaxBoost: 0.5, Steepness: 4},
		"negative slope":   {TrafficRatio: 100, MinBoost: 0.1, MaxBoost: 10, Steepness: -1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.UserDailyCap)

	assert.True(t, cfg.UserCapEnabled("alice"))
	assert.False(t, cfg.UserCapEnabled(""))

	cfg.UserDailyCap = 0
	assert.False(t, cfg.UserCapEnabled("alice"))

	cfg.Location = nil
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Location = time.UTC
	cfg.Policy.TrafficRatio = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
