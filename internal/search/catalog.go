package search

import (
	"sort"
	"strings"

	"compass/api/internal/catalog"
)

// CatalogSearcher scans the compiled-in catalog. It is the fallback
// when Meilisearch is not configured or unreachable; the catalog is
// small enough that a linear scan is fine.
type CatalogSearcher struct{}

func NewCatalogSearcher() *CatalogSearcher {
	return &CatalogSearcher{}
}

// Healthy always reports true: the catalog is in memory.
func (c *CatalogSearcher) Healthy() bool {
	return true
}

// Search matches the query case-insensitively against task titles,
// descriptions and section titles. Title matches rank above the rest.
func (c *CatalogSearcher) Search(q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return []Result{}, 0, nil
	}

	type scored struct {
		result Result
		score  int
	}
	var matches []scored
	for _, section := range catalog.Sections() {
		for _, task := range section.Tasks {
			score := 0
			if strings.Contains(strings.ToLower(task.Title), needle) {
				score = 2
			} else if strings.Contains(strings.ToLower(task.Description), needle) ||
				strings.Contains(strings.ToLower(section.Title), needle) {
				score = 1
			}
			if score == 0 {
				continue
			}
			matches = append(matches, scored{
				result: Result{
					TaskID:       task.ID,
					Title:        task.Title,
					Snippet:      task.Description,
					SectionID:    section.ID,
					SectionTitle: section.Title,
				},
				score: score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	total := len(matches)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.result)
	}
	return results, total, nil
}

// CatalogRecords flattens the catalog into indexable task records.
func CatalogRecords() []TaskRecord {
	var records []TaskRecord
	for _, section := range catalog.Sections() {
		for _, task := range section.Tasks {
			records = append(records, TaskRecord{
				ID:           task.ID,
				Title:        task.Title,
				Description:  task.Description,
				SectionID:    section.ID,
				SectionTitle: section.Title,
			})
		}
	}
	return records
}
