package domain

import "strings"

// DependencyChain is one path of modules from an entry point to a target
type DependencyChain struct {
	// Path lists modules from the entry point to the target
	Path []ModuleID `json:"path"`

	// Depth is the number of edges in Path
	Depth int `json:"depth"`
}

// NewDependencyChain creates a chain over path
func NewDependencyChain(path []ModuleID) DependencyChain {
	depth := 0
	if len(path) > 0 {
		depth = len(path) - 1
	}
	return DependencyChain{Path: path, Depth: depth}
}

// EntryPoint returns the first module of the chain
func (c DependencyChain) EntryPoint() (ModuleID, bool) {
	if len(c.Path) == 0 {
		return ModuleID{}, false
	}
	return c.Path[0], true
}

// Target returns the last module of the chain
func (c DependencyChain) Target() (ModuleID, bool) {
	if len(c.Path) == 0 {
		return ModuleID{}, false
	}
	return c.Path[len(c.Path)-1], true
}

// HasCycle reports whether a module appears twice in the chain
func (c DependencyChain) HasCycle() bool {
	seen := make(map[ModuleID]struct{}, len(c.Path))
	for _, id := range c.Path {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// Format renders the chain as "a -> b -> c"
func (c DependencyChain) Format() string {
	parts := make([]string, len(c.Path))
	for i, id := range c.Path {
		parts[i] = id.String()
	}
	return strings.Join(parts, " -> ")
}

// ChainAnalysis summarizes all chains leading to a module
type ChainAnalysis struct {
	// Target is the analyzed module
	Target ModuleID `json:"target"`

	// Chains are all simple paths from entry points to Target
	Chains []DependencyChain `json:"chains"`

	// MinDepth is the shortest chain depth, nil when unreachable
	MinDepth *int `json:"min_depth,omitempty"`

	// MaxDepth is the longest chain depth, nil when unreachable
	MaxDepth *int `json:"max_depth,omitempty"`

	// AvgDepth is the mean chain depth, 0 when unreachable
	AvgDepth float64 `json:"avg_depth"`

	// EntryPointCount is the number of distinct entry points reaching Target
	EntryPointCount int `json:"entry_point_count"`
}

// NewChainAnalysis computes the summary for a set of chains
func NewChainAnalysis(target ModuleID, chains []DependencyChain) ChainAnalysis {
	analysis := ChainAnalysis{Target: target, Chains: chains}
	if len(chains) == 0 {
		return analysis
	}

	minDepth, maxDepth, total := chains[0].Depth, chains[0].Depth, 0
	entries := make(map[ModuleID]struct{})
	for _, c := range chains {
		minDepth = min(minDepth, c.Depth)
		maxDepth = max(maxDepth, c.Depth)
		total += c.Depth
		if entry, ok := c.EntryPoint(); ok {
			entries[entry] = struct{}{}
		}
	}

	analysis.MinDepth = &minDepth
	analysis.MaxDepth = &maxDepth
	analysis.AvgDepth = float64(total) / float64(len(chains))
	analysis.EntryPointCount = len(entries)
	return analysis
}

// IsReachable reports whether any entry point reaches the target
func (a ChainAnalysis) IsReachable() bool {
	return len(a.Chains) > 0
}

// ShortestChain returns the first chain of minimal depth
func (a ChainAnalysis) ShortestChain() (DependencyChain, bool) {
	if len(a.Chains) == 0 {
		return DependencyChain{}, false
	}
	best := a.Chains[0]
	for _, c := range a.Chains[1:] {
		if c.Depth < best.Depth {
			best = c
		}
	}
	return best, true
}
