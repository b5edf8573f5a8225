package behavior_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/idsia-robotics/navground-onnx/behavior"
	"github.com/idsia-robotics/navground-onnx/engine/enginetest"
	"github.com/idsia-robotics/navground-onnx/motion"
	"github.com/idsia-robotics/navground-onnx/policy"
	"github.com/idsia-robotics/navground-onnx/sim"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// forward fills every slot of the action with half speed straight ahead
func forward(out []float64, run int) {
	for i := 0; i < len(out); i += 2 {
		out[i], out[i+1] = 0.5, 0
	}
}

func config(shared bool) behavior.Config {
	c := behavior.DefaultConfig()
	c.Shared = shared
	c.PolicyPath = "policy.gob"
	return c
}

func TestConfigDefaults(t *testing.T) {
	c, err := behavior.LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, behavior.DefaultConfig(), c)
	assert.Error(t, c.Validate())

	for _, k := range behavior.Knobs() {
		assert.NotEmpty(t, k.Description, k.Name)
	}
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.Set("shared", true)
	v.Set("policy_path", "models/policy.gob")
	v.Set("max_acceleration", "2.5")
	v.Set("include_velocity", "true")
	v.Set("max_target_distance", 3)

	c, err := behavior.LoadConfig(v)
	require.NoError(t, err)
	assert.True(t, c.Shared)
	assert.True(t, filepath.IsAbs(c.PolicyPath))
	assert.Equal(t, "policy.gob", filepath.Base(c.PolicyPath))
	assert.Equal(t, 2.5, c.Action.MaxAcceleration)
	assert.Equal(t, 100.0, c.Action.MaxAngularAcceleration)
	assert.True(t, c.Observation.IncludeVelocity)
	assert.True(t, c.Observation.IncludeTargetDirection)
	assert.Equal(t, 3.0, c.Observation.MaxTargetDistance)
	assert.True(t, math.IsInf(c.Observation.MaxRadius, 1))
	assert.NoError(t, c.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NAVPOLICY_USE_WHEELS", "true")
	t.Setenv("NAVPOLICY_FLAT", "1")

	v := viper.New()
	v.SetEnvPrefix("NAVPOLICY")
	v.AutomaticEnv()
	c, err := behavior.LoadConfig(v)
	require.NoError(t, err)
	assert.True(t, c.Action.UseWheels)
	assert.True(t, c.Observation.Flat)
}

func TestPolicyPath(t *testing.T) {
	w := sim.NewWorld()
	r, err := w.Add(sim.DefaultRobotConfig(), motion.Pose{}, r2.Vec{X: 1})
	require.NoError(t, err)

	b, err := behavior.New(r, config(false), &enginetest.Stub{})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(b.PolicyPath(false)))
	assert.Equal(t, "policy.gob", b.PolicyPath(true))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "policy.gob"), b.Config().PolicyPath)
}

func TestPolicyBehavior(t *testing.T) {
	w := sim.NewWorld()
	r, err := w.Add(sim.DefaultRobotConfig(), motion.Pose{}, r2.Vec{X: 10})
	require.NoError(t, err)

	stub := &enginetest.Stub{Fill: forward}
	b, err := behavior.New(r, config(false), stub)
	require.NoError(t, err)
	assert.Nil(t, b.Policy())

	twist, err := b.ComputeCmd(0.1)
	require.NoError(t, err)
	assert.Equal(t, motion.NewTwist(0.5, 0, 0, motion.Relative), twist)
	assert.Equal(t, 1, b.Policy().Batches())
	assert.Equal(t, []string{sim.Neighbors, policy.TargetDirection},
		stub.Inputs)
	assert.Equal(t, []int{1, 4, 3}, stub.Shapes[sim.Neighbors])

	assert.Error(t, b.SetConfig(config(true)))

	require.NoError(t, b.Close())
	assert.Nil(t, b.Policy())
	assert.Equal(t, 1, stub.Closed)
}

func TestPolicyBehaviorFeasibleCommand(t *testing.T) {
	w := sim.NewWorld()
	r, err := w.Add(sim.DefaultRobotConfig(), motion.Pose{}, r2.Vec{X: 10})
	require.NoError(t, err)

	tests := []struct {
		name    string
		action  []float64
		speed   float64
		angular float64
	}{
		{"within bounds", []float64{0.5, 0.25}, 0.5, 1},
		{"too fast", []float64{4, 0}, 1, 0},
		{"turning too fast", []float64{-0.5, -9}, -0.5, -4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, err := behavior.New(r, config(false),
				&enginetest.Stub{Output: test.action})
			require.NoError(t, err)
			defer b.Close()

			twist, err := b.ComputeCmd(0.1)
			require.NoError(t, err)
			assert.InDelta(t, test.speed, twist.Velocity.X, 1e-9)
			assert.InDelta(t, 0, twist.Velocity.Y, 1e-9)
			assert.InDelta(t, test.angular, twist.AngularSpeed, 1e-9)
			assert.Equal(t, motion.Relative, twist.Frame)
		})
	}
}

func TestPolicyBehaviorErrors(t *testing.T) {
	w := sim.NewWorld()
	r, err := w.Add(sim.DefaultRobotConfig(), motion.Pose{}, r2.Vec{X: 10})
	require.NoError(t, err)

	_, err = behavior.New(nil, config(false), &enginetest.Stub{})
	assert.Error(t, err)

	c := config(false)
	c.PolicyPath = ""
	b, err := behavior.New(r, c, &enginetest.Stub{})
	require.NoError(t, err)
	_, err = b.ComputeCmd(0.1)
	assert.True(t, policy.IsConfiguration(err))

	stub := &enginetest.Stub{OpenErr: assert.AnError}
	b, err = behavior.New(r, config(false), stub)
	require.NoError(t, err)
	_, err = b.ComputeCmd(0.1)
	assert.True(t, policy.IsEngine(err))
	assert.Nil(t, b.Policy())
}

func TestSharedBehaviors(t *testing.T) {
	s := sim.DefaultAntipodal()
	s.Robots = 3
	w := sim.NewWorld()
	robots, err := s.Init(w)
	require.NoError(t, err)

	stub := &enginetest.Stub{Fill: forward}
	registry := policy.NewRegistry(stub)
	behaviors := make([]*behavior.PolicyBehavior, len(robots))
	controllers := make([]sim.Controller, len(robots))
	for i, r := range robots {
		b, err := behavior.New(r, config(true), stub,
			behavior.WithRegistry(registry))
		require.NoError(t, err)
		behaviors[i], controllers[i] = b, b
	}

	// Members join on the first step, which is idle
	require.NoError(t, w.Step(controllers, 0.1))
	for _, r := range robots {
		assert.True(t, r.Cmd().IsZero())
	}
	assert.Equal(t, 0, stub.Opened)
	assert.Equal(t, 1, registry.Len())

	require.NoError(t, w.Run(context.Background(), controllers, 4, 0.1, nil))
	for _, r := range robots {
		assert.InDelta(t, 0.5, r.Cmd().Velocity.X, 1e-9)
	}

	shared, ok := behaviors[0].Policy().(*policy.SharedPolicy)
	require.True(t, ok)
	assert.Same(t, shared, behaviors[2].Policy())
	assert.Equal(t, 3, shared.Batches())
	assert.Equal(t, uint64(4), shared.Cycle())
	assert.Equal(t, 1, stub.Opened)
	assert.Equal(t, 4, stub.Runs)
	assert.Equal(t, []int{3, 4, 3}, stub.Shapes[sim.Neighbors])
	assert.Equal(t, []int{3, 2}, stub.Shapes[policy.TargetDirection])

	for _, b := range behaviors {
		require.NoError(t, b.Close())
	}
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 1, stub.Closed)
}
