// Package optim implements gradient-descent optimization with scheduled
// per-parameter-group hyperparameters.
package optim

// Hyperparameter paths addressable by a schedule.
const (
	PathLR       = "lr"
	PathMomentum = "momentum"
)

// LinearSchedule interpolates a hyperparameter value as a pure function of
// the step index: ramp from StartValue to MaxValue over the warmup fraction
// of TotalSteps, then decay linearly to zero at TotalSteps.
type LinearSchedule struct {
	TotalSteps int
	WarmupRate float64
	StartValue float64
	MaxValue   float64
	Path       string
}

// ValueAt returns the scheduled value at the given step.
func (s LinearSchedule) ValueAt(step int) float64 {
	if s.TotalSteps <= 0 {
		return s.MaxValue
	}

	warmup := int(s.WarmupRate * float64(s.TotalSteps))

	if step < warmup {
		return s.StartValue + (s.MaxValue-s.StartValue)*float64(step)/float64(warmup)
	}

	remaining := s.TotalSteps - warmup
	if remaining <= 0 {
		return s.MaxValue
	}

	value := s.MaxValue * (1 - float64(step-warmup)/float64(remaining))
	if value < 0 {
		return 0
	}

	return value
}
