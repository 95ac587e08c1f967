package search

import (
	"context"

	"github.com/rs/zerolog"
)

// Service is the facade that tries Meilisearch first and falls back to
// PostgreSQL.
type Service struct {
	meili *Meili
	pg    *PgSearch
	log   zerolog.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pg *PgSearch, log zerolog.Logger) *Service {
	return &Service{meili: meili, pg: pg, log: log.With().Str("component", "search").Logger()}
}

// Search tries Meilisearch if healthy, otherwise falls back to PostgreSQL.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.log.Warn().Err(err).Msg("meilisearch error, falling back to postgres")
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		s.log.Error().Err(err).Msg("postgres search error")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexMissions indexes mission records, fire-and-forget to Meilisearch.
func (s *Service) IndexMissions(missions []MissionRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexMissions(missions); err != nil {
			s.log.Warn().Err(err).Int("count", len(missions)).Msg("index missions")
		}
	}()
}

// DeleteMission removes a mission from the search index (fire-and-forget).
func (s *Service) DeleteMission(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteMission(id); err != nil {
			s.log.Warn().Err(err).Str("mission", id).Msg("delete mission from index")
		}
	}()
}

// ReindexAllFromPG reads every mission from PostgreSQL and pushes it to
// Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	missions, err := s.pg.LoadAllRecords(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reindex load failed")
		return
	}
	if len(missions) == 0 {
		return
	}
	if err := s.meili.IndexMissions(missions); err != nil {
		s.log.Warn().Err(err).Msg("reindex missions")
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
