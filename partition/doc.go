// Package partition splits a sample budget across workers with exact coverage.
//
// The single rule used everywhere is:
//
//	assigned(i) = total/W + (1 if i < total mod W else 0)
//
// which gives every worker either floor(total/W) or ceil(total/W) samples and always
// sums to total. Multi-tier deployments apply the same rule recursively: first across
// processes, then, inside each process, across that process's threads using the
// process's own share. Tiers never need to coordinate beyond this formula.
//
// The package is pure: results depend only on (total, workers).
package partition
