// Package ukf owns the augmented square-root unscented Kalman filter and its
// backward smoother.
//
// Responsibilities: filter configuration and unscented weights, sigma-point
// generation, propagation of sigma points through a caller-supplied Model,
// square-root covariance maintenance (QR + Cholesky rank-one update/downdate),
// the predict/correct step with adaptive process-noise inflation, and the
// RTS-style backward pass over a filtered trajectory.
// Key types: Config, State, StepResult, Trajectory, Smoothed.
//
// Dependency rule: no I/O, no goroutines, no logging. Diagnostics leave the
// package only through a TraceSink supplied by the caller.
//
// Covariances are carried as lower-triangular square roots S with S·Sᵀ = P.
// Sigma points are stored one per row of a *mat.Dense.
package ukf
