package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
)

// ObjectiveFunc scores one set of rate multipliers, lower is better.
type ObjectiveFunc func(ctx context.Context, multipliers []float64) (float64, error)

// Params configures the genetic algorithm. Genes live in [0, 1] and map to
// multipliers 10^(Interval*(2g-1)).
type Params struct {
	Population     int     `yaml:"population" toml:"population" env:"POPULATION"`
	Generations    int     `yaml:"generations" toml:"generations" env:"GENERATIONS"`
	MutationRate   float64 `yaml:"mutation_rate" toml:"mutation_rate" env:"MUTATION_RATE"`
	CrossoverRate  float64 `yaml:"crossover_rate" toml:"crossover_rate" env:"CROSSOVER_RATE"`
	Precision      float64 `yaml:"precision" toml:"precision" env:"PRECISION"`
	Interval       float64 `yaml:"interval" toml:"interval" env:"INTERVAL"`
	TournamentSize int     `yaml:"tournament_size" toml:"tournament_size" env:"TOURNAMENT_SIZE"`
	Workers        int     `yaml:"workers" toml:"workers" env:"WORKERS"`
	Seed           uint64  `yaml:"seed" toml:"seed" env:"SEED"`
}

func DefaultParams() Params {
	return Params{
		Population:     20,
		Generations:    10,
		MutationRate:   0.05,
		CrossoverRate:  0.8,
		Precision:      1e-3,
		Interval:       1,
		TournamentSize: 3,
		Workers:        runtime.NumCPU(),
		Seed:           1,
	}
}

func (p Params) Validate() error {
	switch {
	case p.Population < 2:
		return fmt.Errorf("population must be at least 2, got %d", p.Population)
	case p.Generations < 1:
		return fmt.Errorf("generations must be positive, got %d", p.Generations)
	case p.MutationRate < 0 || p.MutationRate > 1:
		return fmt.Errorf("mutation rate must be in [0, 1], got %g", p.MutationRate)
	case p.CrossoverRate < 0 || p.CrossoverRate > 1:
		return fmt.Errorf("crossover rate must be in [0, 1], got %g", p.CrossoverRate)
	case p.Precision <= 0 || p.Precision > 1:
		return fmt.Errorf("precision must be in (0, 1], got %g", p.Precision)
	case p.Interval <= 0:
		return fmt.Errorf("interval must be positive, got %g", p.Interval)
	case p.TournamentSize < 1:
		return fmt.Errorf("tournament size must be positive, got %d", p.TournamentSize)
	}
	return nil
}

// Generation records one ranked population.
type Generation struct {
	Index        int
	Errors       []float64
	Best         int
	BestError    float64
	AverageError float64
	BestGenes    []float64
}

type Result struct {
	BestGenes       []float64
	BestMultipliers []float64
	BestError       float64
	History         []Generation
}

// GA minimizes an ObjectiveFunc over rate multipliers.
type GA struct {
	params     Params
	dim        int
	rng        *rand.Rand
	population [][]float64
	start      int

	bestGenes []float64
	bestError float64

	// OnGeneration, when set, sees every ranked generation with the
	// population that produced it. Returning an error stops the run.
	OnGeneration func(gen Generation, population [][]float64) error
}

func NewGA(dim int, p Params) (*GA, error) {
	if dim < 1 {
		return nil, errors.New("optim: need at least one target")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	g := &GA{
		params:    p,
		dim:       dim,
		rng:       rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
		bestError: math.Inf(1),
	}
	g.population = make([][]float64, p.Population)
	for i := range g.population {
		g.population[i] = g.randomGenes()
	}
	return g, nil
}

// Resume continues a run from a checkpoint. population holds the
// individuals of generation start-1 and errs their ranked errors. The best
// of them is restored and the next population is bred from them, so
// generation start is new work. With nil errs the population is taken as
// unranked and becomes generation start as is.
func (g *GA) Resume(population [][]float64, errs []float64, start int) error {
	if len(population) == 0 {
		return errors.New("optim: empty population")
	}
	if errs != nil && len(errs) != len(population) {
		return fmt.Errorf("optim: %d errors for %d individuals", len(errs), len(population))
	}
	g.population = make([][]float64, len(population))
	for i, genes := range population {
		if len(genes) != g.dim {
			return fmt.Errorf("optim: individual %d has %d genes, want %d", i, len(genes), g.dim)
		}
		g.population[i] = g.quantizeAll(genes)
	}

	if errs != nil {
		ranked := make([]float64, len(errs))
		for i, e := range errs {
			ranked[i] = e
			if math.IsNaN(e) {
				ranked[i] = math.Inf(1)
			}
		}
		g.record(start-1, ranked)
		g.breed(ranked)
	}

	for len(g.population) < g.params.Population {
		g.population = append(g.population, g.randomGenes())
	}
	g.population = g.population[:g.params.Population]
	g.start = start
	return nil
}

func (g *GA) Population() [][]float64 { return g.population }

// Multipliers decodes genes to rate multipliers.
func (g *GA) Multipliers(genes []float64) []float64 {
	out := make([]float64, len(genes))
	for i, x := range genes {
		out[i] = math.Pow(10, g.params.Interval*(2*x-1))
	}
	return out
}

func (g *GA) Run(ctx context.Context, obj ObjectiveFunc) (*Result, error) {
	res := &Result{}
	for i := 0; i < g.params.Generations; i++ {
		errs, err := g.rank(ctx, obj)
		if err != nil {
			return nil, err
		}
		gen := g.record(g.start+i, errs)
		res.History = append(res.History, gen)
		if g.OnGeneration != nil {
			if err := g.OnGeneration(gen, g.population); err != nil {
				return nil, err
			}
		}
		g.breed(errs)
	}

	res.BestGenes = g.bestGenes
	res.BestMultipliers = g.Multipliers(g.bestGenes)
	res.BestError = g.bestError
	return res, nil
}

func (g *GA) rank(ctx context.Context, obj ObjectiveFunc) ([]float64, error) {
	return rankAll(ctx, g.params.Workers, g.population, func(ctx context.Context, genes []float64) (float64, error) {
		return obj(ctx, g.Multipliers(genes))
	})
}

func (g *GA) record(index int, errs []float64) Generation {
	best, avg := summarize(errs)
	if errs[best] < g.bestError {
		g.bestError = errs[best]
		g.bestGenes = append([]float64(nil), g.population[best]...)
	}
	return Generation{
		Index:        index,
		Errors:       append([]float64(nil), errs...),
		Best:         best,
		BestError:    errs[best],
		AverageError: avg,
		BestGenes:    append([]float64(nil), g.population[best]...),
	}
}

// breed produces the next population: tournament selection, two-point
// crossover on consecutive pairs, per-gene mutation, then the global best
// replaces the first individual.
func (g *GA) breed(errs []float64) {
	next := selectAndCross(g.rng, g.params, g.population, errs)
	for _, genes := range next {
		for k := range genes {
			if g.rng.Float64() < g.params.MutationRate {
				genes[k] = g.quantize(g.rng.Float64())
			}
		}
	}

	if g.bestGenes != nil {
		next[0] = append([]float64(nil), g.bestGenes...)
	}
	g.population = next
}

func (g *GA) randomGenes() []float64 {
	genes := make([]float64, g.dim)
	for i := range genes {
		genes[i] = g.quantize(g.rng.Float64())
	}
	return genes
}

func (g *GA) quantize(x float64) float64 {
	q := math.Round(x/g.params.Precision) * g.params.Precision
	return math.Max(0, math.Min(1, q))
}

func (g *GA) quantizeAll(genes []float64) []float64 {
	out := make([]float64, len(genes))
	for i, x := range genes {
		out[i] = g.quantize(x)
	}
	return out
}
