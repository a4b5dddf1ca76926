package optim

import (
	"errors"
	"fmt"
)

// Optimizer errors.
var (
	ErrNoParams      = errors.New("parameter group holds no parameters")
	ErrGradShape     = errors.New("gradient length does not match parameter length")
	ErrUnknownPath   = errors.New("schedule path must be 'lr' or 'momentum'")
	ErrEmptyGroupSet = errors.New("optimizer needs at least one parameter group")
)

// Param is a named flat parameter tensor with its gradient accumulator.
type Param struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
	Grad []float64 `json:"-"`
}

// NewParam allocates a zeroed parameter of the given size.
func NewParam(name string, size int) *Param {
	return &Param{
		Name: name,
		Data: make([]float64, size),
		Grad: make([]float64, size),
	}
}

// EnsureGrad re-allocates the gradient accumulator after deserialization.
func (p *Param) EnsureGrad() {
	if len(p.Grad) != len(p.Data) {
		p.Grad = make([]float64, len(p.Data))
	}
}

// ParamGroup ties parameters to their hyperparameters. Groups without a
// schedule keep their constant LR and Momentum values for the whole run.
type ParamGroup struct {
	Params    []*Param
	LR        float64
	Momentum  float64
	Schedules []LinearSchedule
}

// ScheduledOptimizer applies SGD with momentum, resolving each group's
// scheduled hyperparameters from the step index before every update.
type ScheduledOptimizer struct {
	groups   []*ParamGroup
	velocity map[*Param][]float64
	step     int
}

// NewScheduledOptimizer creates an optimizer over the given groups.
func NewScheduledOptimizer(groups ...*ParamGroup) (*ScheduledOptimizer, error) {
	if len(groups) == 0 {
		return nil, ErrEmptyGroupSet
	}

	velocity := make(map[*Param][]float64)

	for _, group := range groups {
		if len(group.Params) == 0 {
			return nil, ErrNoParams
		}

		for _, sched := range group.Schedules {
			if sched.Path != PathLR && sched.Path != PathMomentum {
				return nil, fmt.Errorf("%w: got %q", ErrUnknownPath, sched.Path)
			}
		}

		for _, param := range group.Params {
			velocity[param] = make([]float64, len(param.Data))
		}
	}

	return &ScheduledOptimizer{
		groups:   groups,
		velocity: velocity,
	}, nil
}

// ZeroGrad clears all gradient accumulators.
func (o *ScheduledOptimizer) ZeroGrad() {
	for _, group := range o.groups {
		for _, param := range group.Params {
			for i := range param.Grad {
				param.Grad[i] = 0
			}
		}
	}
}

// Step resolves scheduled hyperparameters for the current step, applies one
// momentum SGD update to every group and advances the step counter.
func (o *ScheduledOptimizer) Step() error {
	for _, group := range o.groups {
		for _, sched := range group.Schedules {
			switch sched.Path {
			case PathLR:
				group.LR = sched.ValueAt(o.step)
			case PathMomentum:
				group.Momentum = sched.ValueAt(o.step)
			}
		}

		for _, param := range group.Params {
			if len(param.Grad) != len(param.Data) {
				return fmt.Errorf("%w: param %s has %d gradients for %d weights",
					ErrGradShape, param.Name, len(param.Grad), len(param.Data))
			}

			vel := o.velocity[param]

			for i := range param.Data {
				vel[i] = group.Momentum*vel[i] - group.LR*param.Grad[i]
				param.Data[i] += vel[i]
			}
		}
	}

	o.step++

	return nil
}

// StepCount returns the number of optimization steps applied so far.
func (o *ScheduledOptimizer) StepCount() int {
	return o.step
}

// CurrentLR returns the learning rate of the first parameter group, the
// value reported at each validation interval.
func (o *ScheduledOptimizer) CurrentLR() float64 {
	return o.groups[0].LR
}
