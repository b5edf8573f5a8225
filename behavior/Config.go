package behavior

import (
	"fmt"
	"path/filepath"

	"github.com/idsia-robotics/navground-onnx/policy"
	"github.com/spf13/viper"
)

// Config holds the knobs of a PolicyBehavior
type Config struct {
	// Shared is true if the policy is shared with the other behaviors
	// that have an equal configuration
	Shared bool `mapstructure:"shared"`

	// PolicyPath is the path to the model file
	PolicyPath string `mapstructure:"policy_path"`

	Action      policy.ActionConfig      `mapstructure:",squash"`
	Observation policy.ObservationConfig `mapstructure:",squash"`
}

// DefaultConfig returns the default Config
func DefaultConfig() Config {
	return Config{
		Action:      policy.DefaultActionConfig(),
		Observation: policy.DefaultObservationConfig(),
	}
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	if c.PolicyPath == "" {
		return fmt.Errorf("validate: policy path is not set")
	}
	if err := c.Action.Validate(); err != nil {
		return err
	}
	return c.Observation.Validate()
}

// Knob describes a configurable property of a PolicyBehavior
type Knob struct {
	Name        string
	Default     interface{}
	Description string
}

// Knobs returns the properties of a PolicyBehavior with their default
// values
func Knobs() []Knob {
	a := policy.DefaultActionConfig()
	o := policy.DefaultObservationConfig()
	return []Knob{
		{"shared", false,
			"Whether to share the policy with similar agents"},
		{"policy_path", "", "Path to the model file"},
		{"use_acceleration_action", a.UseAccelerationAction,
			"Whether actions are accelerations"},
		{"max_acceleration", a.MaxAcceleration,
			"The upper bound of the acceleration"},
		{"max_angular_acceleration", a.MaxAngularAcceleration,
			"The upper bound of the angular acceleration"},
		{"use_wheels", a.UseWheels,
			"Whether actions are wheel speeds or accelerations"},
		{"fix_orientation", a.FixOrientation,
			"Whether to keep the orientation fixed"},
		{"flat", o.Flat,
			"Whether to flatten the observations into a single tensor"},
		{"history", o.History,
			"The number of observations to stack"},
		{"include_target_distance", o.IncludeTargetDistance,
			"Whether to include the target distance in the observations"},
		{"include_target_distance_validity", o.IncludeTargetDistanceValidity,
			"Whether to include the target distance validity in the " +
				"observations"},
		{"max_target_distance", o.MaxTargetDistance,
			"The upper bound of target distance in the observations"},
		{"include_target_direction", o.IncludeTargetDirection,
			"Whether to include the target direction in the observations"},
		{"include_target_direction_validity",
			o.IncludeTargetDirectionValidity,
			"Whether to include the target direction validity in the " +
				"observations"},
		{"include_velocity", o.IncludeVelocity,
			"Whether to include the current velocity in the observations"},
		{"include_angular_speed", o.IncludeAngularSpeed,
			"Whether to include the current angular speed in the " +
				"observations"},
		{"include_radius", o.IncludeRadius,
			"Whether to include the own radius in the observations"},
		{"include_target_speed", o.IncludeTargetSpeed,
			"Whether to include the target speed in the observations"},
		{"include_target_angular_speed", o.IncludeTargetAngularSpeed,
			"Whether to include the target angular speed in the " +
				"observations"},
		{"max_radius", o.MaxRadius,
			"The upper bound of own radius in the observations"},
	}
}

// SetDefaults registers the default value of every knob in v
func SetDefaults(v *viper.Viper) {
	for _, k := range Knobs() {
		v.SetDefault(k.Name, k.Default)
	}
}

// LoadConfig reads a Config from v, falling back to the defaults of the
// knobs v does not set. The policy path is made absolute.
func LoadConfig(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	c := DefaultConfig()
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("loadconfig: %w", err)
	}
	if c.PolicyPath != "" {
		path, err := filepath.Abs(c.PolicyPath)
		if err != nil {
			return Config{}, fmt.Errorf("loadconfig: %w", err)
		}
		c.PolicyPath = path
	}
	return c, nil
}
