package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"compass/api/internal/catalog"
	"compass/api/internal/store"
)

func statsFixture(users []store.User, records []store.ProgressRecord) *fakeStore {
	return &fakeStore{
		listUsersFn: func(context.Context) ([]store.User, error) {
			return users, nil
		},
		listAllProgressFn: func(context.Context) ([]store.ProgressRecord, error) {
			return records, nil
		},
	}
}

func completedRecords(userID string, taskIDs ...string) []store.ProgressRecord {
	records := make([]store.ProgressRecord, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		records = append(records, store.ProgressRecord{UserID: userID, TaskID: taskID, Completed: true})
	}
	return records
}

func allCatalogTaskIDs() []string {
	var ids []string
	for _, section := range catalog.Sections() {
		for _, task := range section.Tasks {
			ids = append(ids, task.ID)
		}
	}
	return ids
}

func TestAdminStatsAveragesRoundedRates(t *testing.T) {
	// One user with everything done, one with nothing: 100% and 0%
	// average to 50% even though completions average differently.
	users := []store.User{{ID: "u1", Email: "a@x"}, {ID: "u2", Email: "b@x"}}
	records := completedRecords("u1", allCatalogTaskIDs()...)
	svc := newTestService(statsFixture(users, records))

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}

	if stats.TotalUsers != 2 {
		t.Errorf("expected 2 users, got %d", stats.TotalUsers)
	}
	if stats.TotalTasks != catalog.TotalTasks() {
		t.Errorf("expected %d tasks, got %d", catalog.TotalTasks(), stats.TotalTasks)
	}
	if stats.AvgCompletionRate != 50 {
		t.Errorf("expected average 50, got %d", stats.AvgCompletionRate)
	}
	if stats.UserStats[0].CompletionRate != 100 || stats.UserStats[1].CompletionRate != 0 {
		t.Errorf("unexpected per-user rates: %+v", stats.UserStats)
	}
}

func TestAdminStatsRoundsPerUserBeforeAveraging(t *testing.T) {
	// The average is computed from the already-rounded per-user rates,
	// not from the raw fractions.
	total := catalog.TotalTasks()
	if total != 18 {
		t.Skipf("catalog has %d tasks, fixture assumes 18", total)
	}
	ids := allCatalogTaskIDs()
	users := []store.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}
	records := completedRecords("u1", ids[0])
	records = append(records, completedRecords("u2", ids[0])...)
	records = append(records, completedRecords("u3", ids[:17]...)...)
	svc := newTestService(statsFixture(users, records))

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}

	// Per-user: round(100/18)=6, 6, round(1700/18)=94. The average is
	// round((6+6+94)/3) = 35.
	rates := map[string]int{}
	for _, us := range stats.UserStats {
		rates[us.UserID] = us.CompletionRate
	}
	if rates["u1"] != 6 || rates["u2"] != 6 || rates["u3"] != 94 {
		t.Errorf("unexpected rounded per-user rates: %v", rates)
	}
	if stats.AvgCompletionRate != 35 {
		t.Errorf("expected average 35, got %d", stats.AvgCompletionRate)
	}
}

func TestAdminStatsZeroUsers(t *testing.T) {
	svc := newTestService(statsFixture(nil, nil))
	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}
	if stats.AvgCompletionRate != 0 || stats.TotalUsers != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
	for _, ts := range stats.TaskStats {
		if ts.CompletionRate != 0 {
			t.Errorf("task %q has nonzero rate with no users", ts.TaskID)
		}
	}
}

func TestAdminStatsIgnoresRetiredTaskIDs(t *testing.T) {
	users := []store.User{{ID: "u1"}}
	records := []store.ProgressRecord{
		{UserID: "u1", TaskID: "chrome", Completed: true},
		{UserID: "u1", TaskID: "task-from-an-older-catalog", Completed: true},
	}
	svc := newTestService(statsFixture(users, records))

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}
	if stats.UserStats[0].CompletedTasks != 1 {
		t.Errorf("expected retired task ignored, got %d completed", stats.UserStats[0].CompletedTasks)
	}
}

func TestAdminStatsIgnoresUncompletedRows(t *testing.T) {
	users := []store.User{{ID: "u1"}}
	records := []store.ProgressRecord{
		{UserID: "u1", TaskID: "chrome", Completed: true},
		{UserID: "u1", TaskID: "git", Completed: false},
	}
	svc := newTestService(statsFixture(users, records))

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}
	if stats.UserStats[0].CompletedTasks != 1 {
		t.Errorf("expected 1 completed task, got %d", stats.UserStats[0].CompletedTasks)
	}
}

func TestAdminStatsPerTaskRates(t *testing.T) {
	users := []store.User{{ID: "u1"}, {ID: "u2"}}
	records := completedRecords("u1", "chrome")
	svc := newTestService(statsFixture(users, records))

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}

	var chrome *TaskStat
	for i := range stats.TaskStats {
		if stats.TaskStats[i].TaskID == "chrome" {
			chrome = &stats.TaskStats[i]
			break
		}
	}
	if chrome == nil {
		t.Fatal("chrome task missing from task stats")
	}
	if chrome.CompletedBy != 1 || chrome.TotalUsers != 2 || chrome.CompletionRate != 50 {
		t.Errorf("unexpected task stat: %+v", chrome)
	}
	if chrome.SectionTitle == "" {
		t.Error("task stat missing section title")
	}
	if len(stats.TaskStats) != catalog.TotalTasks() {
		t.Errorf("expected a row per catalog task, got %d", len(stats.TaskStats))
	}
}

func TestAdminStatsEndpointRequiresAdmin(t *testing.T) {
	svc := newTestService(statsFixture(nil, nil))
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, store.User{ID: "user-1"})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for student, got %d", rr.Code)
	}
}

func TestAdminStatsEndpointAllowsAdmin(t *testing.T) {
	fs := statsFixture([]store.User{{ID: "admin-1", IsAdmin: true}}, nil)
	fs.getUserByIDFn = func(_ context.Context, userID string) (store.User, error) {
		return store.User{ID: userID, IsAdmin: true}, nil
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, store.User{ID: "admin-1", IsAdmin: true})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for admin, got %d body=%s", rr.Code, rr.Body.String())
	}
}
