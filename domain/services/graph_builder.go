package services

import (
	"math"
	"sort"

	"studyflow-backend/domain/core/aggregates"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

// GraphConfig tunes similarity edge creation
type GraphConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for an edge.
	// Lowering it can only add edges for a fixed vector set.
	SimilarityThreshold float64

	// MaxCorpusSize caps how many notes a single build will compare.
	// The pairwise pass is O(n^2) in the worst case even with the
	// inverted index; beyond the cap the newest notes win.
	MaxCorpusSize int

	// CalibrateSimilarity applies min(1, sqrt(sim)*1.1) to boost mid-range
	// scores before thresholding, matching the product's original tuning.
	// Off by default: raw cosine keeps identity and symmetry exact.
	CalibrateSimilarity bool
}

// DefaultGraphConfig returns the default tuning
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		SimilarityThreshold: 0.15,
		MaxCorpusSize:       2000,
		CalibrateSimilarity: false,
	}
}

// GraphBuilder derives a user's knowledge graph from note vectors and
// user-created manual links.
type GraphBuilder struct {
	config     GraphConfig
	vectorizer *Vectorizer
}

// NewGraphBuilder creates a graph builder. Non-positive config fields fall
// back to their defaults individually; the rest of the config is kept.
func NewGraphBuilder(config GraphConfig, vectorizer *Vectorizer) *GraphBuilder {
	defaults := DefaultGraphConfig()
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if config.MaxCorpusSize <= 0 {
		config.MaxCorpusSize = defaults.MaxCorpusSize
	}
	if vectorizer == nil {
		vectorizer = NewVectorizer(nil)
	}
	return &GraphBuilder{config: config, vectorizer: vectorizer}
}

// Build assembles the full graph for a note set. Every note becomes a
// node, including notes that fail vectorization (they stay isolated).
// Manual links are kept regardless of threshold, annotated with the
// computed similarity, and never duplicated by the similarity pass.
func (gb *GraphBuilder) Build(notes []*entities.Note, manual []entities.ManualLink) *aggregates.Graph {
	graph := &aggregates.Graph{
		Nodes:       make([]aggregates.GraphNode, 0, len(notes)),
		Connections: make([]aggregates.GraphConnection, 0),
	}

	for _, note := range notes {
		graph.Nodes = append(graph.Nodes, aggregates.NewGraphNode(note))
	}
	graph.TotalNodes = len(graph.Nodes)

	// A single note has no peers to compare against
	if len(notes) < 2 {
		gb.appendManual(graph, manual, nil)
		return graph
	}

	corpus := notes
	if len(corpus) > gb.config.MaxCorpusSize {
		corpus = newestNotes(corpus, gb.config.MaxCorpusSize)
	}

	vectors := gb.vectorizer.BuildVectors(corpus)

	for _, pair := range candidatePairs(corpus, vectors) {
		sim := gb.score(vectors[pair[0]], vectors[pair[1]])
		if sim < gb.config.SimilarityThreshold {
			continue
		}
		graph.Connections = append(graph.Connections, aggregates.GraphConnection{
			SourceID:   pair[0],
			TargetID:   pair[1],
			Similarity: sim,
			Type:       aggregates.ConnectionSimilarity,
		})
	}

	sort.Slice(graph.Connections, func(i, j int) bool {
		return graph.Connections[i].Similarity > graph.Connections[j].Similarity
	})

	gb.appendManual(graph, manual, vectors)
	return graph
}

// ConnectionsFor recomputes one note's edges against the rest of the
// corpus, for incremental updates after a single note's content changes.
func (gb *GraphBuilder) ConnectionsFor(
	noteID valueobjects.NoteID,
	notes []*entities.Note,
) []aggregates.GraphConnection {
	vectors := gb.vectorizer.BuildVectors(notes)
	source, ok := vectors[noteID]
	if !ok || source.IsZero() {
		return nil
	}

	connections := make([]aggregates.GraphConnection, 0)
	for _, note := range notes {
		if note.ID() == noteID {
			continue
		}
		sim := gb.score(source, vectors[note.ID()])
		if sim < gb.config.SimilarityThreshold {
			continue
		}
		src, dst := aggregates.CanonicalPair(noteID, note.ID())
		connections = append(connections, aggregates.GraphConnection{
			SourceID:   src,
			TargetID:   dst,
			Similarity: sim,
			Type:       aggregates.ConnectionSimilarity,
		})
	}
	return connections
}

// score computes calibrated or raw cosine similarity between two vectors
func (gb *GraphBuilder) score(a, b TermVector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	sim := Cosine(a, b)
	if gb.config.CalibrateSimilarity && sim > 0 {
		sim = math.Min(1, math.Sqrt(sim)*1.1)
	}
	return sim
}

// appendManual merges user-created links into the graph. Manual edges take
// precedence over computed ones for the same pair; the computed similarity
// is still attached for display when vectors are available.
func (gb *GraphBuilder) appendManual(
	graph *aggregates.Graph,
	manual []entities.ManualLink,
	vectors map[valueobjects.NoteID]TermVector,
) {
	if len(manual) == 0 {
		return
	}

	index := make(map[[2]valueobjects.NoteID]int, len(graph.Connections))
	for i, conn := range graph.Connections {
		index[[2]valueobjects.NoteID{conn.SourceID, conn.TargetID}] = i
	}

	seen := make(map[[2]valueobjects.NoteID]bool)
	for _, link := range manual {
		if link.SourceID == link.TargetID {
			continue
		}
		src, dst := aggregates.CanonicalPair(link.SourceID, link.TargetID)
		pair := [2]valueobjects.NoteID{src, dst}
		if seen[pair] {
			continue
		}
		seen[pair] = true

		sim := 1.0
		if vectors != nil {
			if computed := gb.score(vectors[src], vectors[dst]); computed > 0 {
				sim = computed
			}
		}

		if i, ok := index[pair]; ok {
			// Upgrade the computed edge in place, keeping its similarity
			graph.Connections[i].Type = aggregates.ConnectionManual
			continue
		}
		graph.Connections = append(graph.Connections, aggregates.GraphConnection{
			SourceID:   src,
			TargetID:   dst,
			Similarity: sim,
			Type:       aggregates.ConnectionManual,
		})
	}
}

// candidatePairs yields the canonically ordered note pairs sharing at
// least one term, via an inverted index. Pairs with disjoint vocabulary
// have zero cosine similarity and are never emitted.
func candidatePairs(
	notes []*entities.Note,
	vectors map[valueobjects.NoteID]TermVector,
) [][2]valueobjects.NoteID {
	index := make(map[string][]valueobjects.NoteID)
	for _, note := range notes {
		for term := range vectors[note.ID()] {
			index[term] = append(index[term], note.ID())
		}
	}

	pairs := make([][2]valueobjects.NoteID, 0)
	emitted := make(map[[2]valueobjects.NoteID]bool)
	for _, ids := range index {
		if len(ids) < 2 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				src, dst := aggregates.CanonicalPair(ids[i], ids[j])
				if src == dst {
					continue
				}
				pair := [2]valueobjects.NoteID{src, dst}
				if emitted[pair] {
					continue
				}
				emitted[pair] = true
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs
}

// newestNotes returns the n most recently updated notes
func newestNotes(notes []*entities.Note, n int) []*entities.Note {
	sorted := make([]*entities.Note, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt().After(sorted[j].UpdatedAt())
	})
	return sorted[:n]
}
