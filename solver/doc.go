// Package solver is the backend-independent pipeline for sparse systems
// A·x = b and Aᵗ·x = b, with A square and stored in compressed-column form.
//
// A Backend supplies four capabilities:
//
//   - Name identifies it in errors, logs and metrics.
//   - Permute computes a fill-reducing column permutation (or none).
//   - Factor produces an opaque factorization artifact F.
//   - FactorSolve overwrites a block of right-hand sides with the solution.
//
// Solver wraps a Backend and runs the checks every backend relies on
// (structure, values, RHS length, permutation bijection) before the backend
// is called, so shape errors never reach native code. The default one-shot
// Solve composes Permute, Factor, FactorSolve and Close; a backend with a
// native one-shot path implements OneShot and is detected once, in New.
//
// Artifacts implement io.Closer. Close releases the backend's native
// resources exactly once; the pipeline closes what it creates and never
// hands out an artifact from a failed Factor.
//
// Every failure comes back as *Error carrying the backend name and pipeline
// stage; the sentinels below classify the cause:
//
//	errors.Is(err, solver.ErrSingular)
//
// Calls are synchronous. Distinct Solvers and distinct artifacts share no
// mutable state; a single artifact must not be used from two goroutines at
// once.
package solver
