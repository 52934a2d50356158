// Package reconcile turns raw occupancy reports from the station into ledger
// actions.
//
// A station reports its slots as a comma-separated vector of 0/1 values. The
// package decodes that vector into a Snapshot, compares it with the cached
// one and maps each changed slot to a borrow or a return.
//
// # Components
//
// 1. Encoding: parses payloads. Unreadable tokens become Unknown in place so
//    that slot numbers never shift.
//
// 2. Diff / Merge: slot-by-slot comparison in ascending order. Missing
//    trailing entries compare as vacant, so a growing or shrinking sensor
//    array never breaks the comparison.
//
// 3. Policy: which direction of change is a borrow. The default treats a
//    unit leaving its slot (occupied -> vacant) as a borrow.
//
// 4. Plan / ApplyPlan: the diff plus the actions it implies, applied through a
//    Mutator one action at a time. A failing action never aborts the rest.
//
// 5. SnapshotCache: the in-memory authoritative snapshot with a lazy,
//    stampede-safe load from durable storage.
//
// # Usage Example
//
//	prev, _ := cache.Get(ctx)
//	cur, _ := reconcile.DefaultEncoding.Parse([]byte("0,1,1"))
//	plan := reconcile.BuildPlan(account, prev, cur, reconcile.PolicyWithdrawBorrows)
//	outcomes := reconcile.ApplyPlan(ctx, plan, ledger, reconcile.ReconcileOptions{})
package reconcile
