package policy

import (
	"fmt"

	"github.com/idsia-robotics/navground-onnx/agent"
	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/motion"
	"github.com/idsia-robotics/navground-onnx/utils/floatutils"
)

// EgoState writes the motion state of an agent into the state buffers
// of a Layout. Handles of disabled channels are nil and skipped.
type EgoState struct {
	longitudinal *buffer.Buffer
	angularSpeed *buffer.Buffer
	radius       *buffer.Buffer

	maxRadius float64
}

// Update overwrites slot with the current state of a: its longitudinal
// speed in its own frame, its angular speed and its radius
func (e *EgoState) Update(a agent.Agent, slot int) error {
	if e.longitudinal != nil {
		v := a.Pose().ToRelative(a.Velocity())
		if err := e.longitudinal.SetFloat(slot, 0, v.X); err != nil {
			return fmt.Errorf("update %v: %v", Velocity, err)
		}
	}
	if e.angularSpeed != nil {
		if err := e.angularSpeed.SetFloat(slot, 0, a.AngularSpeed()); err != nil {
			return fmt.Errorf("update %v: %v", AngularSpeed, err)
		}
	}
	if e.radius != nil {
		r := floatutils.Min(a.Radius(), e.maxRadius)
		if err := e.radius.SetFloat(slot, 0, r); err != nil {
			return fmt.Errorf("update %v: %v", Radius, err)
		}
	}
	return nil
}

// TargetState writes the target of an agent into the state buffers of
// a Layout. All values are clamped to the maxima of the layout.
type TargetState struct {
	direction      *buffer.Buffer
	directionValid *buffer.Buffer
	distance       *buffer.Buffer
	distanceValid  *buffer.Buffer
	speed          *buffer.Buffer
	angularSpeed   *buffer.Buffer

	maxDistance     float64
	maxSpeed        float64
	maxAngularSpeed float64
}

// MaxDistance returns the value target distances are clamped to
func (t *TargetState) MaxDistance() float64 {
	return t.maxDistance
}

// Update overwrites slot with the current target of a.
//
// An undefined distance is written as 0 and an undefined direction as
// (0, 0); the validity channels, if enabled, are the authoritative
// signal of whether the values are defined.
func (t *TargetState) Update(a agent.Agent, slot int) error {
	if t.distance != nil {
		d, ok := a.TargetDistance()
		if !ok {
			d = 0
		}
		d = floatutils.Min(d, t.maxDistance)
		if err := t.distance.SetFloat(slot, 0, d); err != nil {
			return fmt.Errorf("update %v: %v", TargetDistance, err)
		}
		if t.distanceValid != nil {
			if err := t.distanceValid.SetByte(slot, 0, flag(ok)); err != nil {
				return fmt.Errorf("update %v: %v", TargetDistanceValid, err)
			}
		}
	}

	if t.direction != nil {
		e, ok := a.TargetDirection(motion.Relative)
		if !ok {
			e.X, e.Y = 0, 0
		}
		if err := t.direction.SetFloat(slot, 0, e.X); err != nil {
			return fmt.Errorf("update %v: %v", TargetDirection, err)
		}
		if err := t.direction.SetFloat(slot, 1, e.Y); err != nil {
			return fmt.Errorf("update %v: %v", TargetDirection, err)
		}
		if t.directionValid != nil {
			if err := t.directionValid.SetByte(slot, 0, flag(ok)); err != nil {
				return fmt.Errorf("update %v: %v", TargetDirectionValid, err)
			}
		}
	}

	if t.speed != nil {
		v := floatutils.Min(a.TargetSpeed(), t.maxSpeed)
		if err := t.speed.SetFloat(slot, 0, v); err != nil {
			return fmt.Errorf("update %v: %v", TargetSpeed, err)
		}
	}
	if t.angularSpeed != nil {
		w := floatutils.Min(a.TargetAngularSpeed(), t.maxAngularSpeed)
		if err := t.angularSpeed.SetFloat(slot, 0, w); err != nil {
			return fmt.Errorf("update %v: %v", TargetAngularSpeed, err)
		}
	}
	return nil
}

func flag(ok bool) uint8 {
	if ok {
		return 1
	}
	return 0
}
