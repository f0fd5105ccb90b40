// Package scheduler runs the provisioning control loop.
//
// # Overview
//
// Each pass the loop snapshots the active accounts in id order, evaluates
// every account against the quota, age and cooldown limits, and provisions
// one group (plus its ten seed messages) for each eligible account. Failures
// are classified into a closed set: a provider hard limit disables the
// account, a flood wait stalls the whole pass, anything else is logged to
// the error table and retried naturally on the next pass.
//
// # Concurrency
//
// Processing is strictly sequential: one loop, at most one provisioning
// action in flight. A flood wait on one account stalls every account behind
// it in the same pass. Parallelizing this would change the pool's exposure
// to provider rate limits and is a deliberate non-goal.
//
// # Control
//
// Operators toggle the run/pause flag via Pause/Resume; pausing stops new
// passes but never cancels an in-flight provisioning action. The loop only
// exits when its context is cancelled.
package scheduler
