// Package reputationservice recomputes worker reputation scores and tiers
// from completed work. It consumes task.completed events at-least-once and
// derives the score from the worker's completed-task count, so replays and
// out-of-order deliveries converge on the same value.
package reputationservice
