package app

import (
	"context"
	"math"
	"sort"

	"compass/api/internal/catalog"
)

type UserStat struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
	CompletionRate int    `json:"completionRate"`
}

type TaskStat struct {
	TaskID         string `json:"taskId"`
	TaskTitle      string `json:"taskTitle"`
	SectionID      string `json:"sectionId"`
	SectionTitle   string `json:"sectionTitle"`
	CompletedBy    int    `json:"completedBy"`
	TotalUsers     int    `json:"totalUsers"`
	CompletionRate int    `json:"completionRate"`
}

type AdminStats struct {
	TotalUsers        int        `json:"totalUsers"`
	TotalTasks        int        `json:"totalTasks"`
	AvgCompletionRate int        `json:"avgCompletionRate"`
	UserStats         []UserStat `json:"userStats"`
	TaskStats         []TaskStat `json:"taskStats"`
}

// AdminStats joins the catalog against every user's progress rows.
//
// Rates are rounded per user first, then the mean of the rounded rates
// is rounded again for the global average. Changing either stage shifts
// the aggregate numbers, so both stages are pinned by tests.
func (s *Service) AdminStats(ctx context.Context) (AdminStats, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	records, err := s.store.ListAllProgress(ctx)
	if err != nil {
		return AdminStats{}, err
	}

	totalTasks := catalog.TotalTasks()
	knownTasks := catalog.TaskIDs()

	// completed[userID] holds the user's completed catalog tasks.
	// Rows referencing retired task identifiers are ignored.
	completed := make(map[string]map[string]struct{})
	for _, record := range records {
		if !record.Completed {
			continue
		}
		if _, known := knownTasks[record.TaskID]; !known {
			continue
		}
		if completed[record.UserID] == nil {
			completed[record.UserID] = make(map[string]struct{})
		}
		completed[record.UserID][record.TaskID] = struct{}{}
	}

	userStats := make([]UserStat, 0, len(users))
	rateSum := 0
	for _, user := range users {
		done := len(completed[user.ID])
		rate := percentage(done, totalTasks)
		rateSum += rate
		userStats = append(userStats, UserStat{
			UserID:         user.ID,
			Email:          user.Email,
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			CompletedTasks: done,
			TotalTasks:     totalTasks,
			CompletionRate: rate,
		})
	}
	sort.SliceStable(userStats, func(i, j int) bool {
		return userStats[i].CompletionRate > userStats[j].CompletionRate
	})

	avg := 0
	if len(users) > 0 {
		avg = int(math.Round(float64(rateSum) / float64(len(users))))
	}

	taskStats := make([]TaskStat, 0, totalTasks)
	for _, section := range catalog.Sections() {
		if section.ID == catalog.WelcomeSectionID {
			continue
		}
		for _, task := range section.Tasks {
			completedBy := 0
			for _, userTasks := range completed {
				if _, done := userTasks[task.ID]; done {
					completedBy++
				}
			}
			taskStats = append(taskStats, TaskStat{
				TaskID:         task.ID,
				TaskTitle:      task.Title,
				SectionID:      section.ID,
				SectionTitle:   section.Title,
				CompletedBy:    completedBy,
				TotalUsers:     len(users),
				CompletionRate: percentage(completedBy, len(users)),
			})
		}
	}

	return AdminStats{
		TotalUsers:        len(users),
		TotalTasks:        totalTasks,
		AvgCompletionRate: avg,
		UserStats:         userStats,
		TaskStats:         taskStats,
	}, nil
}

// percentage rounds to the nearest integer percent; a zero denominator
// yields 0 rather than a division panic.
func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
