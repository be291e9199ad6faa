/*
Package goap implements a goal-oriented action planner for autonomous agents,
together with the tick-driven executor that carries out the plans it produces.

# Architecture

A Domain is an immutable catalogue of actions, each with one effect Condition
and a bounded list of preconditions, plus an optional Resolver per condition.
Domains are built once, validated for cycles as actions are added, optionally
sorted cheapest-first, and then shared read-only by every agent that plans
against them.

An Agent names its domain, carries a primary goal and ordered fallback goals,
and owns a blackboard of world state plus a per-pass condition cache.

The Planner owns the runtime:

  - CreatePlanRequest starts a regressive (backward-chaining) search for an
    agent. The search is a tree of nodes kept in a per-request arena and
    addressed by index; each node stores its parent index, so ancestor
    traversal is a loop rather than a pointer graph.
  - Conditions are resolved first against the branch's ancestor-satisfied
    sets, then the condition cache, then a registered Resolver, and finally by
    searching the domain's candidate actions in priority order.
  - When the primary goal's root search fails, fallback goals are tried in the
    order they were added.
  - A successful plan is executed action by action. Each action is composed
    into atom-actions which follow a Start-once, Update-until-terminal
    contract. An atom-action failure runs the on-fail atom-actions of every
    attempted action (most recent first) before the execution finishes as
    Failure.
  - Any terminal execution outcome spawns a fresh plan request for the same
    agent.

# Ticks

Nothing blocks. Resolution and execution are explicit state machines advanced
by Planner.Tick, which runs four phases in order for every agent:

 1. advance in-flight resolvers one step
 2. feed completed resolver results back into their search nodes
 3. advance or backtrack search nodes until each search suspends or finishes
 4. advance plan executions

Distinct agents touch only their own state and the read-only Domain, so each
phase may run agents in parallel (see WithParallelism).

# Failure semantics

Cycles in a domain are authoring bugs and are reported by AddAction as an
*AuthoringError. Everything else is ordinary state: a search that finds no
chain backtracks, falls back, or ends Failure; an execution that fails runs
its on-fail chain and triggers replanning. Misuse that indicates a programmer
error, such as planning against an unregistered domain, panics.
*/
package goap
