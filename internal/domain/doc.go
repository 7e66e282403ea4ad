// Package domain implements the agronomic decision core of the paddy
// advisor: crop-development tracking from accumulated heat, daily risk
// assessment, and season-scoped advisory gating.
//
// # Accumulated heat and growth stages
//
// Rice development is tracked with effective degree-days: each day
// contributes max(mean temperature − 10 °C, 0) to a running sum counted
// from the transplant date. When the field sits at a different elevation
// than its weather station, the station temperature is corrected by the
// standard lapse rate (0.006 °C/m) before clamping.
//
// Per-variety stage tables partition the accumulated-heat axis into
// ordered phenological stages (tillering through maturity). Tables are
// validated at load time: intervals must be contiguous, non-overlapping,
// and end in an unbounded maturity interval. Classification is a pure
// function of (variety, accumulated heat), which lets the same code serve
// live daily evaluation and retrospective season simulation.
//
// # Post-heading raw accumulation
//
// Harvest and drain timing use a different accumulation: the plain sum of
// daily mean temperatures after heading, with no base subtraction.
// Agronomic convention puts harvest readiness at ≈1000 °C·d of raw
// post-heading accumulation. This asymmetry with effective degree-days is
// intentional; do not unify the two.
//
// # Risk assessors
//
// Three independent assessors consume trailing observation windows:
//
//   - Blast disease: longest contiguous wet run (20–28 °C, humidity ≥90 %,
//     lowered to 85 % during the panicle-sensitive stages), escalated by
//     active pest advisories and weak varietal resistance.
//   - Heat stress: post-heading means of daily average and nighttime
//     minimum temperature over a 20-day window.
//   - Establishment water temperature: estimated paddy water temperature
//     during days 1–10 after transplant.
//
// Missing observations never produce errors; assessors degrade to neutral
// low-risk results with an explanatory message. Configuration problems
// (unknown variety, missing station) are typed errors surfaced to the
// caller.
//
// # Decision engine
//
// The Engine makes one forward pass over a season series (ordered per-day
// records with derived accumulation and stage), consulting and mutating a
// SeasonState of fire-once gates and anchor dates. Each
// advisory fires at most once per season; re-evaluating an already
// processed range emits nothing new. Evaluating a whole season in one
// batch produces the same event sequence as day-by-day invocation.
package domain
