// Command compass is a terminal companion for the onboarding checklist.
// It works against a compass API server or, without one, against a
// local snapshot file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"compass/api/internal/apiclient"
	"compass/api/internal/catalog"
	"compass/api/internal/sync"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

type cliConfig struct {
	server   string
	token    string
	snapshot string
	debug    bool

	logger *logrus.Logger
}

func run(args []string, stdout *os.File) error {
	app := kingpin.New("compass", "Onboarding checklist companion.")
	app.DefaultEnvars()

	cfg := &cliConfig{logger: logrus.New()}
	cfg.logger.SetOutput(os.Stderr)

	app.Flag("server", "Compass API base URL. Empty means local snapshot mode.").StringVar(&cfg.server)
	app.Flag("token", "Bearer token for the API server.").StringVar(&cfg.token)
	app.Flag("snapshot", "Snapshot file for local mode.").Default(defaultSnapshotPath()).StringVar(&cfg.snapshot)
	app.Flag("debug", "Enable debug logging.").BoolVar(&cfg.debug)

	loginCmd := app.Command("login", "Sign in and print an access token.")
	loginEmail := loginCmd.Flag("email", "Account email.").Required().String()
	loginPassword := loginCmd.Flag("password", "Account password.").Required().String()

	statusCmd := app.Command("status", "Show the checklist with completion state.")
	statusJSON := statusCmd.Flag("json", "Print machine-readable output.").Bool()

	toggleCmd := app.Command("toggle", "Flip one task's completion state.")
	toggleTaskID := toggleCmd.Arg("task-id", "Task identifier.").Required().String()

	resetCmd := app.Command("reset", "Clear all progress.")
	resetYes := resetCmd.Flag("yes", "Skip the confirmation.").Bool()

	exportCmd := app.Command("export", "Download the checklist PDF (server mode only).")
	exportOut := exportCmd.Flag("out", "Output file, defaults to the server-provided name.").String()

	statsCmd := app.Command("stats", "Print admin aggregation (server mode, admin only).")

	cmdName, err := app.Parse(args)
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	if cfg.debug {
		cfg.logger.SetLevel(logrus.DebugLevel)
		cfg.logger.Debug("Debug level is enabled")
	}

	ctx := context.Background()
	switch cmdName {
	case loginCmd.FullCommand():
		return runLogin(ctx, cfg, stdout, *loginEmail, *loginPassword)
	case statusCmd.FullCommand():
		return runStatus(ctx, cfg, stdout, *statusJSON)
	case toggleCmd.FullCommand():
		return runToggle(ctx, cfg, stdout, *toggleTaskID)
	case resetCmd.FullCommand():
		return runReset(ctx, cfg, stdout, *resetYes)
	case exportCmd.FullCommand():
		return runExport(ctx, cfg, stdout, *exportOut)
	case statsCmd.FullCommand():
		return runStats(ctx, cfg, stdout)
	}
	return fmt.Errorf("unknown command %q", cmdName)
}

func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "compass-progress.json"
	}
	return filepath.Join(home, ".compass", "progress.json")
}

func (c *cliConfig) backend() (sync.Backend, *apiclient.Client, error) {
	if c.server == "" {
		c.logger.Debugf("using local snapshot at %s", c.snapshot)
		return sync.NewLocalBackend(c.snapshot), nil, nil
	}
	client := apiclient.New(c.server)
	if c.token == "" {
		return nil, nil, fmt.Errorf("--token is required with --server (run: compass login)")
	}
	client.SetToken(c.token)
	return client, client, nil
}

func (c *cliConfig) tracker() (*sync.Tracker, error) {
	backend, _, err := c.backend()
	if err != nil {
		return nil, err
	}
	return sync.NewTracker(backend), nil
}

func runLogin(ctx context.Context, cfg *cliConfig, stdout *os.File, email, password string) error {
	if cfg.server == "" {
		return fmt.Errorf("login requires --server")
	}
	client := apiclient.New(cfg.server)
	if err := client.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	fmt.Fprintln(stdout, client.Token())
	return nil
}

func runStatus(ctx context.Context, cfg *cliConfig, stdout *os.File, asJSON bool) error {
	tracker, err := cfg.tracker()
	if err != nil {
		return err
	}
	if err := tracker.Load(ctx); err != nil {
		return err
	}

	if asJSON {
		payload := map[string]any{
			"completed":  tracker.Completed(),
			"total":      catalog.TotalTasks(),
			"percentage": tracker.Percentage(),
			"tasks":      tracker.Snapshot(),
		}
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	for _, section := range catalog.Sections() {
		if section.ID == catalog.WelcomeSectionID {
			continue
		}
		fmt.Fprintf(stdout, "\n%s\n", section.Title)
		for _, task := range section.Tasks {
			box := "[ ]"
			if tracker.IsCompleted(task.ID) {
				box = "[x]"
			}
			marker := ""
			if task.IsImportant {
				marker = " (!)"
			}
			fmt.Fprintf(stdout, "  %s %-22s %s%s\n", box, task.ID, task.Title, marker)
		}
	}
	fmt.Fprintf(stdout, "\n%d/%d tasks complete (%d%%)\n",
		tracker.Completed(), catalog.TotalTasks(), tracker.Percentage())
	return nil
}

func runToggle(ctx context.Context, cfg *cliConfig, stdout *os.File, taskID string) error {
	if _, ok := catalog.TaskByID(taskID); !ok {
		return fmt.Errorf("unknown task %q (see: compass status)", taskID)
	}

	tracker, err := cfg.tracker()
	if err != nil {
		return err
	}
	if err := tracker.Load(ctx); err != nil {
		return err
	}
	tracker.OnComplete = func() {
		fmt.Fprintln(stdout, "\nChecklist complete. Nice work!")
	}

	if err := tracker.Toggle(ctx, taskID); err != nil {
		return err
	}

	state := "not completed"
	if tracker.IsCompleted(taskID) {
		state = "completed"
	}
	fmt.Fprintf(stdout, "%s: %s (%d%%)\n", taskID, state, tracker.Percentage())
	return nil
}

func runReset(ctx context.Context, cfg *cliConfig, stdout *os.File, yes bool) error {
	if !yes {
		return fmt.Errorf("refusing to clear progress without --yes")
	}
	tracker, err := cfg.tracker()
	if err != nil {
		return err
	}
	if err := tracker.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Progress cleared.")
	return nil
}

func runExport(ctx context.Context, cfg *cliConfig, stdout *os.File, out string) error {
	_, client, err := cfg.backend()
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("export requires --server")
	}

	data, filename, err := client.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if out == "" {
		out = filename
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", out, len(data))
	return nil
}

func runStats(ctx context.Context, cfg *cliConfig, stdout *os.File) error {
	_, client, err := cfg.backend()
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("stats requires --server")
	}

	payload, err := client.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	var pretty map[string]any
	if err := json.Unmarshal(payload, &pretty); err != nil {
		return fmt.Errorf("parse stats: %w", err)
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(pretty)
}
