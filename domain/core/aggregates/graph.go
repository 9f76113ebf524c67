// Package aggregates contains the knowledge graph read model assembled
// from notes, computed similarities and manual links.
package aggregates

import (
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

// ConnectionType distinguishes computed edges from user-created ones
type ConnectionType string

const (
	ConnectionSimilarity ConnectionType = "similarity"
	ConnectionManual     ConnectionType = "manual"
)

// GraphNode is the projection of a note served to graph consumers
type GraphNode struct {
	ID             valueobjects.NoteID `json:"id"`
	Title          string              `json:"title"`
	ContentPreview string              `json:"content_preview"`
	WordCount      int                 `json:"word_count"`
}

// GraphConnection is an undirected edge between two notes. Pairs are
// canonically ordered (SourceID < TargetID) so each unordered pair appears
// at most once, and never as a self-loop.
type GraphConnection struct {
	SourceID   valueobjects.NoteID `json:"source_id"`
	TargetID   valueobjects.NoteID `json:"target_id"`
	Similarity float64             `json:"similarity"`
	Type       ConnectionType      `json:"connection_type"`
}

// Graph is the full link graph for one user at one note-set version
type Graph struct {
	Nodes       []GraphNode       `json:"nodes"`
	Connections []GraphConnection `json:"connections"`
	TotalNodes  int               `json:"total_nodes"`
}

// NewGraphNode projects a note into its graph representation
func NewGraphNode(note *entities.Note) GraphNode {
	return GraphNode{
		ID:             note.ID(),
		Title:          note.Title(),
		ContentPreview: note.ContentPreview(),
		WordCount:      note.WordCount(),
	}
}

// CanonicalPair orders two note IDs so the lesser is first
func CanonicalPair(a, b valueobjects.NoteID) (valueobjects.NoteID, valueobjects.NoteID) {
	if b < a {
		return b, a
	}
	return a, b
}
