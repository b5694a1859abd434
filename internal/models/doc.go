// Package models provides dynamical systems that satisfy ukf.Model so the
// filter can be exercised end to end from a tuning file.
//
// All models here are stateless: useInternalState is accepted and ignored,
// which makes repeated evaluation at sigma points out of temporal order safe.
package models
