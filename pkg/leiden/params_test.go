package leiden

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParameters(t *testing.T) {
	g := fixtureGraph(t)
	p := DefaultParameters(g)

	assert.Equal(t, DefaultConcurrency, p.Concurrency)
	assert.Equal(t, DefaultMaxIterations, p.MaxIterations)
	assert.Equal(t, DefaultTheta, p.Theta)
	assert.InDelta(t, 1.0/28, p.Gamma, 1e-15)
	assert.Nil(t, p.RandomSeed)
	assert.NoError(t, p.Validate())
}

func TestGammaForResolution(t *testing.T) {
	g := fixtureGraph(t)
	assert.InDelta(t, 0.5/28, GammaForResolution(g, 0.5), 1e-15)
	assert.Zero(t, GammaForResolution(nil, 1))
}

func TestParameters_Validate(t *testing.T) {
	valid := func() Parameters {
		return Parameters{Concurrency: 2, MaxIterations: 5, Gamma: 0.1, Theta: 0.01}
	}

	tests := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"zero concurrency", func(p *Parameters) { p.Concurrency = 0 }},
		{"zero iterations", func(p *Parameters) { p.MaxIterations = 0 }},
		{"negative gamma", func(p *Parameters) { p.Gamma = -1 }},
		{"NaN gamma", func(p *Parameters) { p.Gamma = math.NaN() }},
		{"zero theta", func(p *Parameters) { p.Theta = 0 }},
		{"infinite theta", func(p *Parameters) { p.Theta = math.Inf(1) }},
	}

	base := valid()
	assert.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
		})
	}
}
