// Package kinetics is a small built-in chemical kinetics engine.
//
// It covers what the fitting pipeline needs from a simulation engine:
//
//   - [Mechanism]: species and elementary reactions with modified Arrhenius
//     rate constants, loaded from a compact YAML file
//   - [Gas]: an ideal-gas state set from temperature, pressure and a
//     composition string such as "CH4:1, O2:2, AR:7"
//   - [Network]: a constant-pressure homogeneous reactor advanced in time
//     by an adaptive Dormand-Prince integrator, with optional brute-force
//     sensitivity coefficients of species concentration
//
// Heat capacities are constant per species and reverse rate constants are
// given explicitly. There are no pressure-dependent or third-body
// reactions. The engine is meant for reproducible fitting experiments and
// tests; mechanisms that need full thermochemistry belong in a dedicated
// combustion library behind the same driver interfaces.
package kinetics
