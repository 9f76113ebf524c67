package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/aggregates"
	"studyflow-backend/domain/core/valueobjects"
	domainservices "studyflow-backend/domain/services"
	"studyflow-backend/infrastructure/observability"
	"studyflow-backend/internal/config"
	appErrors "studyflow-backend/pkg/errors"
)

// cachedGraph pairs a built graph with the note-set version and tuning it
// was built from.
type cachedGraph struct {
	graph     *aggregates.Graph
	version   int64
	threshold float64
	calibrate bool
}

// GraphService serves the knowledge graph, caching one build per user
// keyed by the note-set version. A version bump from any note or link
// mutation invalidates the cached entry; readers between the bump and the
// next build see the previous complete graph, never a partial one.
type GraphService struct {
	noteRepo    ports.NoteRepository
	linkRepo    ports.LinkRepository
	versionRepo ports.VersionRepository
	provider    *config.Provider
	vectorizer  *domainservices.Vectorizer
	logger      *zap.Logger
	metrics     *observability.Collector

	mu    sync.Mutex
	cache map[valueobjects.UserID]*cachedGraph
	// building serializes graph builds per user so concurrent readers of
	// a cold cache do not duplicate the O(n^2) work
	building map[valueobjects.UserID]*sync.Mutex
}

// NewGraphService creates a graph service
func NewGraphService(
	noteRepo ports.NoteRepository,
	linkRepo ports.LinkRepository,
	versionRepo ports.VersionRepository,
	provider *config.Provider,
	vectorizer *domainservices.Vectorizer,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		noteRepo:    noteRepo,
		linkRepo:    linkRepo,
		versionRepo: versionRepo,
		provider:    provider,
		vectorizer:  vectorizer,
		logger:      logger,
		cache:       make(map[valueobjects.UserID]*cachedGraph),
		building:    make(map[valueobjects.UserID]*sync.Mutex),
	}
}

// WithMetrics attaches a metrics collector. Safe to skip in tests.
func (s *GraphService) WithMetrics(metrics *observability.Collector) *GraphService {
	s.metrics = metrics
	return s
}

// Get returns the user's graph for the current note-set version, building
// and caching it when stale or missing.
func (s *GraphService) Get(ctx context.Context, userID valueobjects.UserID) (*aggregates.Graph, error) {
	version, err := s.versionRepo.Current(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "reading note-set version")
	}

	tuning := s.provider.Snapshot().Graph
	if graph, ok := s.lookup(userID, version, tuning); ok {
		s.countCacheHit()
		return graph, nil
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check after acquiring the build lock; another goroutine may have
	// finished the same build while we waited.
	if graph, ok := s.lookup(userID, version, tuning); ok {
		s.countCacheHit()
		return graph, nil
	}
	s.countCacheMiss()

	graph, err := s.build(ctx, userID, tuning)
	if err != nil {
		return nil, err
	}

	s.store(userID, version, tuning, graph)
	s.logger.Debug("graph built",
		zap.String("user_id", userID.String()),
		zap.Int64("version", version),
		zap.Int("nodes", graph.TotalNodes),
		zap.Int("connections", len(graph.Connections)))
	return graph, nil
}

// Connections returns one note's edges against the current corpus,
// bypassing the cache. Used for the per-note related view.
func (s *GraphService) Connections(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
) ([]aggregates.GraphConnection, error) {
	if _, err := s.noteRepo.FindByID(ctx, userID, noteID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading notes")
	}

	builder := s.builder(s.provider.Snapshot().Graph)
	return builder.ConnectionsFor(noteID, notes), nil
}

func (s *GraphService) build(
	ctx context.Context,
	userID valueobjects.UserID,
	tuning config.GraphConfig,
) (*aggregates.Graph, error) {
	notes, err := s.noteRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading notes")
	}
	links, err := s.linkRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading links")
	}
	graph := s.builder(tuning).Build(notes, links)
	if s.metrics != nil {
		s.metrics.GraphBuilds.Inc()
	}
	return graph, nil
}

func (s *GraphService) countCacheHit() {
	if s.metrics != nil {
		s.metrics.GraphCacheHits.Inc()
	}
}

func (s *GraphService) countCacheMiss() {
	if s.metrics != nil {
		s.metrics.GraphCacheMisses.Inc()
	}
}

func (s *GraphService) builder(tuning config.GraphConfig) *domainservices.GraphBuilder {
	return domainservices.NewGraphBuilder(domainservices.GraphConfig{
		SimilarityThreshold: tuning.SimilarityThreshold,
		MaxCorpusSize:       tuning.MaxCorpusSize,
		CalibrateSimilarity: tuning.CalibrateSimilarity,
	}, s.vectorizer)
}

func (s *GraphService) lookup(userID valueobjects.UserID, version int64, tuning config.GraphConfig) (*aggregates.Graph, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[userID]
	if !ok || entry.version != version {
		return nil, false
	}
	// A tuning change also invalidates: the cached graph was thresholded
	// with the old values
	if entry.threshold != tuning.SimilarityThreshold || entry.calibrate != tuning.CalibrateSimilarity {
		return nil, false
	}
	return entry.graph, true
}

func (s *GraphService) store(userID valueobjects.UserID, version int64, tuning config.GraphConfig, graph *aggregates.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[userID]
	if ok && entry.version > version {
		// A newer build already landed; do not regress
		return
	}
	s.cache[userID] = &cachedGraph{
		graph:     graph,
		version:   version,
		threshold: tuning.SimilarityThreshold,
		calibrate: tuning.CalibrateSimilarity,
	}
}

func (s *GraphService) userLock(userID valueobjects.UserID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.building[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.building[userID] = lock
	}
	return lock
}
