package policy

import (
	"errors"
	"fmt"

	"github.com/idsia-robotics/navground-onnx/agent"
)

// ErrUninitialized is returned when running a policy whose layout has
// not been built
var ErrUninitialized = errors.New("policy not initialized")

// ConfigurationError reports invalid or inconsistent layout parameters.
// The operation should not be retried without changing configuration.
type ConfigurationError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ConfigurationError) Error() string {
	return e.Op + ": invalid configuration: " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(op string, format string, args ...interface{}) error {
	return &ConfigurationError{Op: op, Err: fmt.Errorf(format, args...)}
}

// MembershipError reports that an agent is not a member of the shared
// policy it was stepped with
type MembershipError struct {
	Agent agent.Agent
}

// Error satisfies the error interface
func (e *MembershipError) Error() string {
	return "step: agent does not belong to this group of shared policies"
}

// EngineError reports that the inference engine failed to load a model
// or to run it
type EngineError struct {
	Op   string
	Path string
	Err  error
}

// Error satisfies the error interface
func (e *EngineError) Error() string {
	return fmt.Sprintf("%v: engine failed on %v: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// OrderError reports that a member of a shared policy was stepped
// before the leader ran the batched inference of the current cycle, so
// its command would be computed from a stale action
type OrderError struct {
	Slot  int
	Cycle uint64
}

// Error satisfies the error interface
func (e *OrderError) Error() string {
	return fmt.Sprintf("step: slot %v stepped twice in cycle %v before the "+
		"leader", e.Slot, e.Cycle)
}

// IsConfiguration returns whether or not err reports an invalid
// configuration
func IsConfiguration(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsMembership returns whether or not err reports a non-member agent
func IsMembership(err error) bool {
	var e *MembershipError
	return errors.As(err, &e)
}

// IsEngine returns whether or not err reports an inference engine
// failure
func IsEngine(err error) bool {
	var e *EngineError
	return errors.As(err, &e)
}

// IsOrder returns whether or not err reports out of order stepping
func IsOrder(err error) bool {
	var e *OrderError
	return errors.As(err, &e)
}
