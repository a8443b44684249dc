package export

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"compass/api/internal/catalog"
)

// Service renders checklist exports.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Checklist renders the user's checklist as a PDF. The welcome section
// is skipped: it has no tasks and only exists for on-screen display.
func (s *Service) Checklist(ctx context.Context, req Request) (Result, error) {
	data := buildTemplateData(req)

	html, err := RenderChecklistHTML(data)
	if err != nil {
		return Result{}, fmt.Errorf("render checklist: %w", err)
	}

	result, err := exportPDF(html, "onboarding-checklist-"+data.Name)
	if err != nil {
		return Result{}, err
	}
	return *result, nil
}

func buildTemplateData(req Request) TemplateData {
	name := strings.TrimSpace(req.FirstName + " " + req.LastName)
	if name == "" {
		name = req.Email
	}

	total := catalog.TotalTasks()
	completed := 0
	var sections []TemplateSection
	for _, section := range catalog.Sections() {
		if section.ID == catalog.WelcomeSectionID {
			continue
		}
		ts := TemplateSection{Title: section.Title}
		for _, task := range section.Tasks {
			done := req.Progress[task.ID]
			if done {
				completed++
			}
			ts.Tasks = append(ts.Tasks, TemplateTask{
				Title:       task.Title,
				Description: task.Description,
				Completed:   done,
				IsImportant: task.IsImportant,
			})
		}
		sections = append(sections, ts)
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(completed) / float64(total)))
	}

	return TemplateData{
		Name:           name,
		Email:          req.Email,
		GeneratedAt:    time.Now(),
		CompletedTasks: completed,
		TotalTasks:     total,
		Percentage:     percentage,
		Sections:       sections,
	}
}
