package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/kinetics"
)

// DefaultMaxSteps bounds a batch run that never reaches its runtime limit.
const DefaultMaxSteps = 200000

// PlugFlowTolerances are the tight tolerances used for plug-flow profiles.
func PlugFlowTolerances() dynamo.Tolerances {
	tol := dynamo.DefaultTolerances()
	tol.RelTol = 1e-8
	tol.AbsTol = 1e-15
	return tol
}

// Driver runs reactor cases and records their trajectories.
type Driver struct {
	eng       Engine
	metrics   []Metric
	observers []Observer
	logger    *log.Logger
	maxSteps  int
}

func New(eng Engine) *Driver {
	return &Driver{
		eng:       eng,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.New(os.Stderr, "sim: ", log.LstdFlags),
		maxSteps:  DefaultMaxSteps,
	}
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }
func (d *Driver) SetLogger(l *log.Logger) { d.logger = l }

func (d *Driver) SetMaxSteps(n int) {
	if n > 0 {
		d.maxSteps = n
	}
}

func (d *Driver) Engine() Engine { return d.eng }

// RunBatch integrates a constant-pressure reactor from cond until the
// simulated time exceeds limit. Engine failures end recording early and are
// reported in Trajectory.Err; only invalid input and cancellation are
// returned as errors.
func (d *Driver) RunBatch(ctx context.Context, cond kinetics.Conditions, limit float64) (*Trajectory, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("runtime limit must be positive, got %g", limit)
	}
	r, err := d.eng.NewReactor(cond, dynamo.Tolerances{})
	if err != nil {
		return nil, fmt.Errorf("build reactor: %w", err)
	}
	return d.Integrate(ctx, r, limit, nil)
}

// Integrate steps an already built reactor. fn, when not nil, sees the
// reactor after each recorded sample, including the initial one.
func (d *Driver) Integrate(ctx context.Context, r Reactor, limit float64, fn StepFunc) (*Trajectory, error) {
	tr := newTrajectory(d.eng.SpeciesNames())
	d.reset()
	d.observe(tr, r.Snapshot(), false)
	if fn != nil {
		fn(r)
	}

	for r.Time() <= limit {
		select {
		case <-ctx.Done():
			d.finish(tr)
			return tr, ctx.Err()
		default:
		}

		if tr.StepsTaken >= d.maxSteps {
			d.downgrade(tr, &dynamo.SimulationError{Step: tr.StepsTaken, Time: r.Time(), Wrapped: dynamo.ErrTooManySteps})
			break
		}
		if _, err := r.Step(); err != nil {
			d.downgrade(tr, err)
			break
		}
		tr.StepsTaken++
		d.observe(tr, r.Snapshot(), false)
		if fn != nil {
			fn(r)
		}
	}

	d.finish(tr)
	return tr, nil
}

// RunPlugFlow advances a reactor over steps equal increments up to the
// residence time, keeping the full state row at each increment.
func (d *Driver) RunPlugFlow(ctx context.Context, cond kinetics.Conditions, residence float64, steps int) (*Trajectory, error) {
	if residence <= 0 || steps <= 0 {
		return nil, fmt.Errorf("residence time and steps must be positive, got %g and %d", residence, steps)
	}
	r, err := d.eng.NewReactor(cond, PlugFlowTolerances())
	if err != nil {
		return nil, fmt.Errorf("build reactor: %w", err)
	}

	tr := newTrajectory(d.eng.SpeciesNames())
	d.reset()
	d.observe(tr, r.Snapshot(), true)

	dt := residence / float64(steps)
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			d.finish(tr)
			return tr, ctx.Err()
		default:
		}

		if err := r.AdvanceTo(float64(i) * dt); err != nil {
			d.downgrade(tr, err)
			break
		}
		tr.StepsTaken++
		d.observe(tr, r.Snapshot(), true)
	}

	d.finish(tr)
	return tr, nil
}

func (d *Driver) reset() {
	for _, m := range d.metrics {
		m.Reset()
	}
}

func (d *Driver) observe(tr *Trajectory, s kinetics.Snapshot, full bool) {
	tr.record(s, full)
	for _, m := range d.metrics {
		m.Observe(s)
	}
	for _, o := range d.observers {
		o.OnStep(s)
	}
}

func (d *Driver) finish(tr *Trajectory) {
	for _, m := range d.metrics {
		tr.Metrics[m.Name()] = m.Value()
	}
}

// downgrade keeps partial data on an engine failure and logs it.
func (d *Driver) downgrade(tr *Trajectory, err error) {
	tr.Err = err
	var simErr *dynamo.SimulationError
	if errors.As(err, &simErr) {
		d.logger.Printf("warning: simulation error after %d samples: %v", tr.Len(), err)
		return
	}
	d.logger.Printf("warning: runtime error after %d samples: %v", tr.Len(), err)
}
