// Package spsolve is a uniform front end for sparse direct solvers.
//
// A square sparse matrix A in compressed-column form is factored by one of
// several interchangeable backends, and the factorization is reused for as
// many right-hand sides as needed, for A·x = b and Aᵗ·x = b alike. Switching
// backends never changes a call site.
//
// What is inside?
//
//	numeric/     index and scalar constraints, lossless width conversion
//	resource/    accounting of native allocations (release exactly once)
//	csc/         CSC storage, validators, mat-vec, triangular solves
//	amd/         approximate minimum degree ordering
//	lu/          Gilbert–Peierls left-looking sparse LU engine
//	solver/      Backend contract, validated pipeline, errors, metrics
//	gplu/        backend: any index, real or complex, opaque artifact
//	klu/         backend: int32 native indices, Common record, one-shot solve
//	rlu/         backend: explicit L, U and permutations handed to the caller
//	dense/       backend: gonum dense LU, the reference for small systems
//	mtx/         Matrix Market reader and writer
//	fixture/     10×10 reference system, admittance generators, ACTIVSg loader
//	solvertest/  the validation battery every backend runs
//	config/      YAML configuration of the command
//	cmd/spsolve  solve, bench and example sub-commands
//
// Quick start:
//
//	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64]())
//	perm, err := s.Permute(n, rowIdx, colPtr)
//	f, err := s.Factor(n, rowIdx, colPtr, values, perm)
//	defer f.Close()
//	err = s.FactorSolve(f, rhs, false) // rhs holds nrhs columns, overwritten by x
//
// Every failure is a *solver.Error naming the backend and the stage
// (validate, permute, factor, factor_solve, solve); match the cause with
// errors.Is against solver.ErrSingular, solver.ErrConversion and friends.
//
//	go get github.com/katalvlaran/spsolve
package spsolve
