package blaze

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// TargetIndex links test targets to the sources they own.
type TargetIndex struct {
	graph   graph.Graph[string, string]
	targets map[string]Target
}

// NewTargetIndex builds an index with an edge from each target to each of its
// sources.
func NewTargetIndex(targets []Target) (*TargetIndex, error) {
	ix := &TargetIndex{
		graph:   graph.New(graph.StringHash, graph.Directed()),
		targets: make(map[string]Target, len(targets)),
	}

	for _, target := range targets {
		key := target.Label.String()
		ix.targets[key] = target
		if err := ix.addVertex(key); err != nil {
			return nil, err
		}
		for _, src := range target.Srcs {
			if err := ix.addVertex(src); err != nil {
				return nil, err
			}
			err := ix.graph.AddEdge(key, src)
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to link %s to %s: %w", key, src, err)
			}
		}
	}

	return ix, nil
}

func (ix *TargetIndex) addVertex(key string) error {
	err := ix.graph.AddVertex(key)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add %s: %w", key, err)
	}
	return nil
}

// TargetsForSource returns the targets listing src, a workspace-relative
// path, in label order.
func (ix *TargetIndex) TargetsForSource(src string) ([]Target, error) {
	predecessors, err := ix.graph.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read target index: %w", err)
	}

	owners := predecessors[src]
	keys := make([]string, 0, len(owners))
	for key := range owners {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	targets := make([]Target, 0, len(keys))
	for _, key := range keys {
		targets = append(targets, ix.targets[key])
	}
	return targets, nil
}
