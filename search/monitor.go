package search

import "github.com/poiesic/lexicore/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *core.Query)
	AfterKeywordSearch(ids []core.ChunkID)
	AfterSemanticSearch(ids []core.ChunkID)
	AfterGraphExpansion(ids []core.ChunkID)
	Degraded(reason string)
	AfterRank(results []*core.SearchResult)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.Query)                  {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ChunkID)  {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ChunkID) {}
func (n *noopMonitor) AfterGraphExpansion(_ []core.ChunkID) {}
func (n *noopMonitor) Degraded(_ string)                    {}
func (n *noopMonitor) AfterRank(_ []*core.SearchResult)     {}
func (n *noopMonitor) Finish(_ *Response)                   {}
