package planning

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Solver is the visitor interface external planning strategies implement.
// The core double-dispatches each solvable entity to the matching method.
// A strategy overrides the methods for the entities it supports; the
// embedded SolverBase answers everything else with a logic error so that
// unsupported combinations are caught loudly.
type Solver interface {
	Name() string
	LogLevel() int
	SolveDemand(d *Demand, data any) error
	SolveOperation(op Operation, data any) error
	SolveBuffer(b *Buffer, data any) error
	SolveResource(r *Resource, data any) error
	SolveFlow(f *Flow, data any) error
	SolveLoad(l *Load, data any) error
}

// SolverBase supplies the default behavior for solver implementations:
// every solve method fails, and a numeric log level gates verbose tracing.
type SolverBase struct {
	name     string
	logLevel int
}

// NewSolverBase names a solver scaffold.
func NewSolverBase(name string) SolverBase {
	return SolverBase{name: name}
}

// Name returns the solver name.
func (s *SolverBase) Name() string { return s.name }

// LogLevel returns the tracing verbosity.
func (s *SolverBase) LogLevel() int { return s.logLevel }

// SetLogLevel updates the tracing verbosity.
func (s *SolverBase) SetLogLevel(l int) { s.logLevel = l }

// Trace emits a tracing event when the solver verbosity reaches the given
// level.
func (s *SolverBase) Trace(level int, msg string) {
	if s.logLevel >= level {
		log.WithLevel(zerolog.DebugLevel).Str("solver", s.name).Msg(msg)
	}
}

// SolveDemand rejects the combination.
func (s *SolverBase) SolveDemand(d *Demand, data any) error {
	return NewLogicError("solver '%s' does not support demands", s.name)
}

// SolveOperation rejects the combination.
func (s *SolverBase) SolveOperation(op Operation, data any) error {
	return NewLogicError("solver '%s' does not support operations", s.name)
}

// SolveBuffer rejects the combination.
func (s *SolverBase) SolveBuffer(b *Buffer, data any) error {
	return NewLogicError("solver '%s' does not support buffers", s.name)
}

// SolveResource rejects the combination.
func (s *SolverBase) SolveResource(r *Resource, data any) error {
	return NewLogicError("solver '%s' does not support resources", s.name)
}

// SolveFlow rejects the combination.
func (s *SolverBase) SolveFlow(f *Flow, data any) error {
	return NewLogicError("solver '%s' does not support flows", s.name)
}

// SolveLoad rejects the combination.
func (s *SolverBase) SolveLoad(l *Load, data any) error {
	return NewLogicError("solver '%s' does not support loads", s.name)
}

// Solvable is implemented by every entity a solver can visit.
type Solvable interface {
	Solve(s Solver, data any) error
}

// Solve dispatches the demand to the solver.
func (d *Demand) Solve(s Solver, data any) error { return s.SolveDemand(d, data) }

// Solve dispatches the buffer to the solver.
func (b *Buffer) Solve(s Solver, data any) error { return s.SolveBuffer(b, data) }

// Solve dispatches the resource to the solver.
func (r *Resource) Solve(s Solver, data any) error { return s.SolveResource(r, data) }

// Solve dispatches the flow to the solver.
func (f *Flow) Solve(s Solver, data any) error { return s.SolveFlow(f, data) }

// Solve dispatches the load to the solver.
func (l *Load) Solve(s Solver, data any) error { return s.SolveLoad(l, data) }

// SolveOperation dispatches an operation to the solver. Operations are
// dispatched through a helper because the Operation interface is itself
// implemented by several variants.
func SolveOperation(op Operation, s Solver, data any) error {
	return s.SolveOperation(op, data)
}
