package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyflow-backend/domain/core/aggregates"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

func buildGraph(t *testing.T, threshold float64, notes []*entities.Note, manual []entities.ManualLink) *aggregates.Graph {
	t.Helper()
	config := DefaultGraphConfig()
	config.SimilarityThreshold = threshold
	return NewGraphBuilder(config, nil).Build(notes, manual)
}

func connectionBetween(graph *aggregates.Graph, a, b valueobjects.NoteID) (aggregates.GraphConnection, bool) {
	src, dst := aggregates.CanonicalPair(a, b)
	for _, conn := range graph.Connections {
		if conn.SourceID == src && conn.TargetID == dst {
			return conn, true
		}
	}
	return aggregates.GraphConnection{}, false
}

func TestBuild(t *testing.T) {
	t.Run("connects overlapping notes and isolates disjoint ones", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "n1", "", "cat and dog"),
			makeNote(t, "n2", "", "dog and bird"),
			makeNote(t, "n3", "", "car engine"),
		}

		graph := buildGraph(t, 0.1, notes, nil)

		assert.Equal(t, 3, graph.TotalNodes)
		require.Len(t, graph.Nodes, 3)

		conn, ok := connectionBetween(graph, "n1", "n2")
		require.True(t, ok, "notes sharing 'dog' should connect")
		assert.GreaterOrEqual(t, conn.Similarity, 0.1)
		assert.Equal(t, aggregates.ConnectionSimilarity, conn.Type)

		_, ok = connectionBetween(graph, "n1", "n3")
		assert.False(t, ok, "disjoint vocabularies must not connect")
		_, ok = connectionBetween(graph, "n2", "n3")
		assert.False(t, ok)
	})

	t.Run("no self loops and canonical ordering", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "b", "", "shared topic vocabulary words"),
			makeNote(t, "a", "", "shared topic vocabulary words"),
		}

		graph := buildGraph(t, 0.1, notes, nil)

		require.Len(t, graph.Connections, 1)
		conn := graph.Connections[0]
		assert.NotEqual(t, conn.SourceID, conn.TargetID)
		assert.True(t, conn.SourceID < conn.TargetID)
	})

	t.Run("lowering the threshold never removes edges", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "n1", "", "neural network training loop"),
			makeNote(t, "n2", "", "network protocols routing tables"),
			makeNote(t, "n3", "", "neural network layers training"),
		}

		strict := buildGraph(t, 0.3, notes, nil)
		loose := buildGraph(t, 0.05, notes, nil)

		assert.GreaterOrEqual(t, len(loose.Connections), len(strict.Connections))
		for _, conn := range strict.Connections {
			_, ok := connectionBetween(loose, conn.SourceID, conn.TargetID)
			assert.True(t, ok, "edge %s-%s lost at lower threshold", conn.SourceID, conn.TargetID)
		}
	})

	t.Run("connections sorted by similarity descending", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "n1", "", "alpha beta gamma delta"),
			makeNote(t, "n2", "", "alpha beta gamma delta"),
			makeNote(t, "n3", "", "alpha unrelated filler terms"),
		}

		graph := buildGraph(t, 0.01, notes, nil)

		require.GreaterOrEqual(t, len(graph.Connections), 2)
		for i := 1; i < len(graph.Connections); i++ {
			assert.GreaterOrEqual(t,
				graph.Connections[i-1].Similarity,
				graph.Connections[i].Similarity)
		}
	})

	t.Run("single note yields nodes without edges", func(t *testing.T) {
		notes := []*entities.Note{makeNote(t, "n1", "Solo", "the only note")}

		graph := buildGraph(t, 0.1, notes, nil)

		assert.Equal(t, 1, graph.TotalNodes)
		assert.Empty(t, graph.Connections)
	})

	t.Run("empty corpus", func(t *testing.T) {
		graph := buildGraph(t, 0.1, nil, nil)
		assert.Zero(t, graph.TotalNodes)
		assert.Empty(t, graph.Nodes)
		assert.Empty(t, graph.Connections)
	})
}

func TestBuildManualLinks(t *testing.T) {
	t.Run("manual link survives below threshold", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "n1", "", "ancient roman aqueducts"),
			makeNote(t, "n2", "", "modern plumbing systems"),
		}
		link, err := entities.NewManualLink("user-1", "n1", "n2")
		require.NoError(t, err)

		graph := buildGraph(t, 0.9, notes, []entities.ManualLink{link})

		conn, ok := connectionBetween(graph, "n1", "n2")
		require.True(t, ok)
		assert.Equal(t, aggregates.ConnectionManual, conn.Type)
	})

	t.Run("manual type wins over computed edge for the same pair", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "n1", "", "spaced repetition scheduling"),
			makeNote(t, "n2", "", "spaced repetition scheduling"),
		}
		link, err := entities.NewManualLink("user-1", "n2", "n1")
		require.NoError(t, err)

		graph := buildGraph(t, 0.1, notes, []entities.ManualLink{link})

		require.Len(t, graph.Connections, 1)
		assert.Equal(t, aggregates.ConnectionManual, graph.Connections[0].Type)
		assert.InDelta(t, 1.0, graph.Connections[0].Similarity, 1e-9)
	})

	t.Run("duplicate and reversed manual links collapse to one edge", func(t *testing.T) {
		notes := []*entities.Note{
			makeNote(t, "n1", "", "first distinct topic"),
			makeNote(t, "n2", "", "second separate subject"),
		}
		forward, err := entities.NewManualLink("user-1", "n1", "n2")
		require.NoError(t, err)
		reverse, err := entities.NewManualLink("user-1", "n2", "n1")
		require.NoError(t, err)

		graph := buildGraph(t, 0.9, notes, []entities.ManualLink{forward, reverse, forward})

		assert.Len(t, graph.Connections, 1)
	})

	t.Run("manual links kept when corpus is a single note pairing", func(t *testing.T) {
		notes := []*entities.Note{makeNote(t, "n1", "Solo", "only note")}
		link, err := entities.NewManualLink("user-1", "n1", "n2")
		require.NoError(t, err)

		graph := buildGraph(t, 0.1, notes, []entities.ManualLink{link})

		require.Len(t, graph.Connections, 1)
		assert.Equal(t, aggregates.ConnectionManual, graph.Connections[0].Type)
	})
}

func TestConnectionsFor(t *testing.T) {
	builder := NewGraphBuilder(GraphConfig{SimilarityThreshold: 0.1, MaxCorpusSize: 2000}, nil)

	notes := []*entities.Note{
		makeNote(t, "n1", "", "cat and dog"),
		makeNote(t, "n2", "", "dog and bird"),
		makeNote(t, "n3", "", "car engine"),
	}

	conns := builder.ConnectionsFor("n2", notes)
	require.Len(t, conns, 1)
	src, dst := aggregates.CanonicalPair("n1", "n2")
	assert.Equal(t, src, conns[0].SourceID)
	assert.Equal(t, dst, conns[0].TargetID)

	assert.Empty(t, builder.ConnectionsFor("n3", notes))
	assert.Empty(t, builder.ConnectionsFor("missing", notes))
}

func TestNewGraphBuilderDefaults(t *testing.T) {
	// A zero threshold falls back to the default without discarding the
	// caller's corpus cap.
	builder := NewGraphBuilder(GraphConfig{MaxCorpusSize: 2}, nil)

	base := time.Now().UTC()
	notes := make([]*entities.Note, 0, 3)
	for i, id := range []string{"old", "newA", "newB"} {
		note := makeNote(t, id, "", "identical study material")
		at := base.Add(time.Duration(i-2) * time.Hour)
		notes = append(notes, entities.ReconstructNote(note.ID(), note.UserID(), note.Title(), note.Content(), 0, at, at))
	}

	graph := builder.Build(notes, nil)

	// Identical notes clear the defaulted threshold, so the cap is the
	// only thing limiting edges: two compared notes yield one connection.
	require.Len(t, graph.Connections, 1)
	_, ok := connectionBetween(graph, "newA", "newB")
	assert.True(t, ok, "the cap keeps the two newest notes")
}

func TestBuildCorpusCap(t *testing.T) {
	config := DefaultGraphConfig()
	config.SimilarityThreshold = 0.1
	config.MaxCorpusSize = 2
	builder := NewGraphBuilder(config, nil)

	old := makeNote(t, "old", "", "shared vocabulary terms")
	newer := makeNote(t, "newA", "", "shared vocabulary terms")
	newest := makeNote(t, "newB", "", "shared vocabulary terms")

	// Stagger update times so the cap keeps the two newest
	base := time.Now().UTC()
	old = entities.ReconstructNote(old.ID(), old.UserID(), old.Title(), old.Content(), 0, base.Add(-2*time.Hour), base.Add(-2*time.Hour))
	newer = entities.ReconstructNote(newer.ID(), newer.UserID(), newer.Title(), newer.Content(), 0, base.Add(-time.Hour), base.Add(-time.Hour))
	newest = entities.ReconstructNote(newest.ID(), newest.UserID(), newest.Title(), newest.Content(), 0, base, base)

	graph := builder.Build([]*entities.Note{old, newer, newest}, nil)

	// All three remain nodes; only the two newest are compared
	assert.Equal(t, 3, graph.TotalNodes)
	require.Len(t, graph.Connections, 1)
	_, ok := connectionBetween(graph, "newA", "newB")
	assert.True(t, ok)
}
