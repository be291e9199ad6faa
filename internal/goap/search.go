package goap

import (
	"fmt"
)

// nodeID addresses a search node within its request's arena.
type nodeID int32

// noNode is the parent of a root node.
const noNode nodeID = -1

type nodePhase uint8

const (
	// phaseAdvance moves to the next unresolved target condition.
	phaseAdvance nodePhase = iota
	// phaseResolving waits for the request's in-flight resolver.
	phaseResolving
	// phaseSearching tries the candidate at the action cursor.
	phaseSearching
	// phaseWaiting waits for a live child to succeed or fail.
	phaseWaiting
)

// searchNode is one frame of the regressive search.
type searchNode struct {
	parent nodeID
	child  nodeID
	// action is the domain index of the action this node tries to enable,
	// or -1 for a root node.
	action     int
	targets    [MaxPreconditions]Condition
	numTargets int
	// condCursor indexes targets; actionCursor indexes candidates.
	condCursor   int
	actionCursor int
	candidates   []int
	// satisfied holds conditions guaranteed by actions already accepted in
	// this node's subtree. Descendants consult it through their parent chain.
	satisfied map[ConditionID]bool
	// plan accumulates the actions contributed by accepted children, in
	// execution order.
	plan  []ActionID
	phase nodePhase
	live  bool
}

func (n *searchNode) target() Condition { return n.targets[n.condCursor] }

func (n *searchNode) satisfy(c Condition) {
	if n.satisfied == nil {
		n.satisfied = make(map[ConditionID]bool)
	}
	n.satisfied[c.ID] = c.Value
}

// searchArena stores the nodes of one request's search tree. Released slots
// are reused, so a long-running request does not grow without bound.
//
// Pointers returned by get are invalidated by alloc.
type searchArena struct {
	nodes []searchNode
	free  []nodeID
	count int
}

func (a *searchArena) alloc(parent nodeID, action int, targets []Condition) nodeID {
	if len(targets) > MaxPreconditions {
		panic(fmt.Sprintf("goap: %d target conditions exceed capacity %d", len(targets), MaxPreconditions))
	}
	var id nodeID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = nodeID(len(a.nodes))
		a.nodes = append(a.nodes, searchNode{})
	}
	node := &a.nodes[id]
	*node = searchNode{
		parent: parent,
		child:  noNode,
		action: action,
		live:   true,
	}
	node.numTargets = copy(node.targets[:], targets)
	a.count++
	return id
}

func (a *searchArena) get(id nodeID) *searchNode {
	node := &a.nodes[id]
	if !node.live {
		panic(fmt.Sprintf("goap: search node %d used after release", id))
	}
	return node
}

func (a *searchArena) release(id nodeID) {
	node := a.get(id)
	if node.child != noNode {
		panic(fmt.Sprintf("goap: releasing search node %d with live child %d", id, node.child))
	}
	*node = searchNode{}
	a.free = append(a.free, id)
	a.count--
}

// live returns the number of allocated nodes.
func (a *searchArena) live() int { return a.count }

// ancestorSatisfied reports whether c is guaranteed by id or any of its
// ancestors.
func (a *searchArena) ancestorSatisfied(id nodeID, c Condition) bool {
	for id != noNode {
		node := a.get(id)
		if v, ok := node.satisfied[c.ID]; ok && v == c.Value {
			return true
		}
		id = node.parent
	}
	return false
}

// depth returns the number of edges between id and the root.
func (a *searchArena) depth(id nodeID) int {
	d := 0
	for id = a.get(id).parent; id != noNode; id = a.get(id).parent {
		d++
	}
	return d
}
