// Package lu is the sparse LU engine behind the gplu, klu and rlu backends:
// a left-looking Gilbert–Peierls factorization with threshold partial
// pivoting, split into a symbolic and a numeric phase.
//
// The engine works on the native index widths int, int32 and int64
// (numeric.Native); adapters translate the caller's index type before any
// engine call.
//
//   - Analyze records the order, the column permutation q and the fill
//     estimate, and accounts a symbolic handle with a resource.Tracker.
//   - Factorize computes P·A·Q = L·U column by column: a depth-first reach
//     through the finished part of L, a sparse triangular solve, then the
//     pivot choice. The diagonal is kept whenever |a(q[k],q[k])| is at least
//     Tol times the column maximum.
//   - Solve and SolveBlock apply the factors in place for A·x = b or
//     Aᵗ·x = b (plain transpose). Both directions share one factorization.
//   - Free releases the accounted handle exactly once.
//
// Factor layout, shared with the csc triangular kernels: L is unit lower
// triangular with the diagonal first in every column, U is upper triangular
// with the diagonal last. Row indices of L are stored in pivot order.
//
// Complexity: Factorize runs in O(n + flops); each Solve is
// O(n + nnz(L) + nnz(U)).
package lu
