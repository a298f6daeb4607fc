package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// MaskObjective scores one inclusion mask, lower is better.
type MaskObjective func(ctx context.Context, mask []bool) (float64, error)

type MaskResult struct {
	Best      []bool
	BestError float64
	History   []Generation
}

// MaskGA evolves boolean inclusion masks, such as the species kept in a
// skeletal mechanism. Only positions flagged mutable ever change; every
// other position keeps the value it has in the seeds.
type MaskGA struct {
	params     Params
	rng        *rand.Rand
	mutable    []bool
	population [][]bool

	best      []bool
	bestError float64

	// OnGeneration, when set, sees every ranked generation with the
	// population that produced it. Returning an error stops the run.
	OnGeneration func(gen Generation, population [][]bool) error
}

// NewMaskGA starts from seeds. Extra seeds beyond the population size are
// ignored; missing individuals are mutated copies of the seeds.
func NewMaskGA(seeds [][]bool, mutable []bool, p Params) (*MaskGA, error) {
	if len(seeds) == 0 {
		return nil, errors.New("optim: no seed masks")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	for i, s := range seeds {
		if len(s) != len(mutable) {
			return nil, fmt.Errorf("optim: seed %d has %d genes, want %d", i, len(s), len(mutable))
		}
	}

	g := &MaskGA{
		params:    p,
		rng:       rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
		mutable:   mutable,
		bestError: math.Inf(1),
	}
	g.population = make([][]bool, p.Population)
	for i := range g.population {
		g.population[i] = append([]bool(nil), seeds[i%len(seeds)]...)
		if i >= len(seeds) {
			g.mutate(g.population[i])
		}
	}
	return g, nil
}

func (g *MaskGA) Population() [][]bool { return g.population }

func (g *MaskGA) Run(ctx context.Context, obj MaskObjective) (*MaskResult, error) {
	res := &MaskResult{}
	for i := 0; i < g.params.Generations; i++ {
		errs, err := rankAll(ctx, g.params.Workers, g.population, func(ctx context.Context, mask []bool) (float64, error) {
			return obj(ctx, mask)
		})
		if err != nil {
			return nil, err
		}
		gen := g.record(i, errs)
		res.History = append(res.History, gen)
		if g.OnGeneration != nil {
			if err := g.OnGeneration(gen, g.population); err != nil {
				return nil, err
			}
		}
		g.breed(errs)
	}

	res.Best = g.best
	res.BestError = g.bestError
	return res, nil
}

func (g *MaskGA) record(index int, errs []float64) Generation {
	best, avg := summarize(errs)
	if errs[best] < g.bestError {
		g.bestError = errs[best]
		g.best = append([]bool(nil), g.population[best]...)
	}
	return Generation{
		Index:        index,
		Errors:       append([]float64(nil), errs...),
		Best:         best,
		BestError:    errs[best],
		AverageError: avg,
		BestGenes:    MaskGenes(g.population[best]),
	}
}

func (g *MaskGA) breed(errs []float64) {
	next := selectAndCross(g.rng, g.params, g.population, errs)
	for _, mask := range next {
		g.mutate(mask)
	}
	if g.best != nil {
		next[0] = append([]bool(nil), g.best...)
	}
	g.population = next
}

// mutate flips each mutable position with the mutation rate.
func (g *MaskGA) mutate(mask []bool) {
	for k := range mask {
		if g.mutable[k] && g.rng.Float64() < g.params.MutationRate {
			mask[k] = !mask[k]
		}
	}
}

// MaskGenes encodes a mask as 0/1 genes for checkpoint tables.
func MaskGenes(mask []bool) []float64 {
	out := make([]float64, len(mask))
	for i, v := range mask {
		if v {
			out[i] = 1
		}
	}
	return out
}
