package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to
// the in-memory catalog scan.
type Service struct {
	meili    *Meili
	fallback *CatalogSearcher
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili, fallback: NewCatalogSearcher()}
}

// Search tries Meilisearch if healthy, otherwise scans the catalog.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to catalog scan: %v", err)
	}

	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: catalog scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// ReindexCatalog pushes the full catalog into Meilisearch. Called at
// startup; a no-op without a healthy instance.
func (s *Service) ReindexCatalog() {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if err := s.meili.IndexTasks(CatalogRecords()); err != nil {
		log.Printf("search: reindex catalog: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
