// Package dynamo provides the ODE primitives the reactor models are built on.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step integrator interface
//   - [AdaptiveIntegrator]: error-controlled integrator interface
//   - [Tolerances]: step-size control settings
//
// # Example
//
//	integ := integrators.NewRK45()
//	x, dtNext, accepted := integ.StepAdaptive(sys, x0, 0, dt, dynamo.DefaultTolerances())
//	if !accepted {
//		// retry from x0 with dtNext
//	}
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
// Give each reactor network its own integrator.
package dynamo
