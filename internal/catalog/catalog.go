// Package catalog holds the static orientation checklist definition.
// The catalog never changes at runtime; completion totals and display
// order are always derived from it, not from stored progress.
package catalog

import "fmt"

// WelcomeSectionID marks the sentinel section with zero tasks. It is
// excluded from every progress and total computation.
const WelcomeSectionID = "welcome"

type Subtask struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

type Task struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Link          string    `json:"link,omitempty"`
	InternalRoute string    `json:"internalRoute,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	HelpText      string    `json:"helpText,omitempty"`
	Subtasks      []Subtask `json:"subtasks,omitempty"`
	IsImportant   bool      `json:"isImportant,omitempty"`
	IsBonus       bool      `json:"isBonus,omitempty"`
	IsRecommended bool      `json:"isRecommended,omitempty"`
}

type Section struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Collapsible bool   `json:"collapsible"`
	Tasks       []Task `json:"tasks"`
}

// Sections returns the checklist in display order.
func Sections() []Section {
	return sections
}

// TotalTasks counts every task outside the welcome section.
func TotalTasks() int {
	total := 0
	for _, section := range sections {
		if section.ID == WelcomeSectionID {
			continue
		}
		total += len(section.Tasks)
	}
	return total
}

// TaskIDs returns the set of valid task identifiers. Progress rows with
// identifiers outside this set are ignored by every consumer.
func TaskIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, section := range sections {
		for _, task := range section.Tasks {
			ids[task.ID] = struct{}{}
		}
	}
	return ids
}

// TaskByID looks up a task by identifier.
func TaskByID(taskID string) (Task, bool) {
	for _, section := range sections {
		for _, task := range section.Tasks {
			if task.ID == taskID {
				return task, true
			}
		}
	}
	return Task{}, false
}

// SectionOfTask returns the section containing the given task.
func SectionOfTask(taskID string) (Section, bool) {
	for _, section := range sections {
		for _, task := range section.Tasks {
			if task.ID == taskID {
				return section, true
			}
		}
	}
	return Section{}, false
}

// Validate checks catalog integrity: globally unique section and task
// identifiers, and no tasks under the welcome sentinel. A violation is a
// data defect, so process start treats it as fatal.
func Validate() error {
	sectionIDs := make(map[string]struct{})
	taskIDs := make(map[string]struct{})
	for _, section := range sections {
		if _, dup := sectionIDs[section.ID]; dup {
			return fmt.Errorf("duplicate section id %q", section.ID)
		}
		sectionIDs[section.ID] = struct{}{}
		if section.ID == WelcomeSectionID && len(section.Tasks) > 0 {
			return fmt.Errorf("welcome section must not carry tasks")
		}
		for _, task := range section.Tasks {
			if _, dup := taskIDs[task.ID]; dup {
				return fmt.Errorf("duplicate task id %q", task.ID)
			}
			taskIDs[task.ID] = struct{}{}
			subIDs := make(map[string]struct{})
			for _, sub := range task.Subtasks {
				if _, dup := subIDs[sub.ID]; dup {
					return fmt.Errorf("duplicate subtask id %q in task %q", sub.ID, task.ID)
				}
				subIDs[sub.ID] = struct{}{}
			}
		}
	}
	return nil
}
