// Package resolve provides goap resolver factories that sense conditions from
// an agent's blackboard: direct key lookups, expr-lang expressions and CEL
// expressions.
//
// Expressions are compiled once, when the factory is built, and the compiled
// programs are shared through bounded LRU caches. Each resolution evaluates
// against a snapshot of the blackboard taken on the tick the resolver
// finishes. Evaluation errors and non-bool results resolve to false and are
// logged.
package resolve
