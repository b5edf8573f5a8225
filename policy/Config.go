package policy

import (
	"fmt"
	"math"
)

// ActionConfig configures how the action tensor is decoded into a
// command. ActionConfig is a comparable value type.
type ActionConfig struct {
	MaxAcceleration        float64 `mapstructure:"max_acceleration"`
	MaxAngularAcceleration float64 `mapstructure:"max_angular_acceleration"`

	// UseAccelerationAction is true if actions are accelerations that
	// are integrated against the agent's current motion
	UseAccelerationAction bool `mapstructure:"use_acceleration_action"`

	// FixOrientation is true if the policy controls a holonomic agent
	// that does not rotate: actions are (longitudinal, transversal)
	// instead of (longitudinal, angular)
	FixOrientation bool `mapstructure:"fix_orientation"`

	// UseWheels is true if actions are (left, right) wheel commands
	UseWheels bool `mapstructure:"use_wheels"`
}

// DefaultActionConfig returns the default ActionConfig
func DefaultActionConfig() ActionConfig {
	return ActionConfig{
		MaxAcceleration:        10,
		MaxAngularAcceleration: 100,
	}
}

// Validate checks an ActionConfig to ensure it is a valid configuration
func (c ActionConfig) Validate() error {
	if math.IsNaN(c.MaxAcceleration) || c.MaxAcceleration < 0 {
		return fmt.Errorf("validate: invalid max acceleration %v",
			c.MaxAcceleration)
	}
	if math.IsNaN(c.MaxAngularAcceleration) || c.MaxAngularAcceleration < 0 {
		return fmt.Errorf("validate: invalid max angular acceleration %v",
			c.MaxAngularAcceleration)
	}
	if c.UseWheels && c.FixOrientation {
		return fmt.Errorf("validate: wheel actions cannot fix orientation")
	}
	return nil
}

// ObservationConfig configures which state channels are observed by
// the policy. ObservationConfig is a comparable value type.
type ObservationConfig struct {
	// Flat is true if all observations are concatenated into a single
	// "observation" input
	Flat bool `mapstructure:"flat"`

	History int `mapstructure:"history"`

	IncludeTargetDistance         bool    `mapstructure:"include_target_distance"`
	IncludeTargetDistanceValidity bool    `mapstructure:"include_target_distance_validity"`
	MaxTargetDistance             float64 `mapstructure:"max_target_distance"`

	IncludeTargetDirection         bool `mapstructure:"include_target_direction"`
	IncludeTargetDirectionValidity bool `mapstructure:"include_target_direction_validity"`

	IncludeVelocity           bool `mapstructure:"include_velocity"`
	IncludeAngularSpeed       bool `mapstructure:"include_angular_speed"`
	IncludeRadius             bool `mapstructure:"include_radius"`
	IncludeTargetSpeed        bool `mapstructure:"include_target_speed"`
	IncludeTargetAngularSpeed bool `mapstructure:"include_target_angular_speed"`

	MaxRadius float64 `mapstructure:"max_radius"`
}

// DefaultObservationConfig returns the default ObservationConfig: only
// the target direction is observed
func DefaultObservationConfig() ObservationConfig {
	return ObservationConfig{
		History:                1,
		MaxTargetDistance:      math.Inf(1),
		IncludeTargetDirection: true,
		MaxRadius:              math.Inf(1),
	}
}

// Validate checks an ObservationConfig to ensure it is a valid
// configuration
func (c ObservationConfig) Validate() error {
	if c.History < 1 {
		return fmt.Errorf("validate: history must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.History)
	}
	// TODO: stack past observations once models trained with history
	// are supported
	if c.History > 1 {
		return fmt.Errorf("validate: observation history %v is not "+
			"supported", c.History)
	}
	if math.IsNaN(c.MaxTargetDistance) || c.MaxTargetDistance < 0 {
		return fmt.Errorf("validate: invalid max target distance %v",
			c.MaxTargetDistance)
	}
	if math.IsNaN(c.MaxRadius) || c.MaxRadius < 0 {
		return fmt.Errorf("validate: invalid max radius %v", c.MaxRadius)
	}
	return nil
}
