// Package abtest implements A/B test management and the assignment
// engine: starting a test shuffles the eligible audience, partitions it
// across variations, simulates the engagement funnel, and picks a winner.
package abtest
