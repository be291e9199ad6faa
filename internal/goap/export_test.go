package goap

// LiveNodes returns the number of search nodes allocated by req.
func LiveNodes(req *PlanRequest) int { return req.arena.live() }

// HasResolverInFlight reports whether req is waiting on a resolver.
func HasResolverInFlight(req *PlanRequest) bool { return req.resolver != nil }

// SearchDepth returns the depth of req's active search node, or -1.
func SearchDepth(req *PlanRequest) int {
	if req.active == noNode {
		return -1
	}
	return req.arena.depth(req.active)
}
