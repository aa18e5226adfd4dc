package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run a database health check",
		Long: `Analyze the database for potential issues.

The doctor command inspects storage, schema, and maintenance state
and reports:
- Health checks grouped by category (Storage, Schema, Maintenance)
- Health score (0-100)
- Actionable recommendations`,
		Example: `  # Run health check
  redduck doctor

  # Output as JSON
  redduck doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Status string `json:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := buildDoctorOutput(cmd, cmdCtx)

	if cmdCtx.Cfg.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return renderDoctorText(cmd, out)
}

func buildDoctorOutput(cmd *cobra.Command, cmdCtx *CommandContext) *DoctorOutput {
	ctx := cmd.Context()
	ctrl := cmdCtx.Controller
	var checks []HealthCheck

	// Storage checks
	if ctrl.InMemory() {
		checks = append(checks, HealthCheck{
			Name: "Database file", Group: "storage", Status: "pass",
			Detail: "in-memory database",
		})
	} else if size, err := ctrl.FileSize(); err != nil {
		checks = append(checks, HealthCheck{
			Name: "Database file", Group: "storage", Status: "error",
			Detail: err.Error(),
		})
	} else {
		checks = append(checks, HealthCheck{
			Name: "Database file", Group: "storage", Status: "pass",
			Detail: fmt.Sprintf("%d bytes on disk", size),
		})
	}

	stats, err := ctrl.Stats(ctx)
	switch {
	case err != nil:
		checks = append(checks, HealthCheck{
			Name: "Storage statistics", Group: "storage", Status: "error",
			Detail: err.Error(),
		})
	case stats.TotalBlocks > 0 && stats.FreeBlocks*4 > stats.TotalBlocks:
		// More than a quarter of blocks are free
		checks = append(checks, HealthCheck{
			Name: "Free space", Group: "storage", Status: "warn",
			Detail: fmt.Sprintf("%d of %d blocks free", stats.FreeBlocks, stats.TotalBlocks),
		})
	default:
		checks = append(checks, HealthCheck{
			Name: "Free space", Group: "storage", Status: "pass",
		})
	}

	// Schema checks
	tables, err := ctrl.Tables(ctx)
	switch {
	case err != nil:
		checks = append(checks, HealthCheck{
			Name: "Tables", Group: "schema", Status: "error",
			Detail: err.Error(),
		})
	case len(tables) == 0:
		checks = append(checks, HealthCheck{
			Name: "Tables", Group: "schema", Status: "warn",
			Detail: "database has no tables",
		})
	default:
		checks = append(checks, HealthCheck{
			Name: "Tables", Group: "schema", Status: "pass",
			Detail: fmt.Sprintf("%d tables", len(tables)),
		})

		empty := 0
		for _, name := range tables {
			if count, err := ctrl.Count(ctx, name); err == nil && count == 0 {
				empty++
			}
		}
		if empty > 0 {
			checks = append(checks, HealthCheck{
				Name: "Empty tables", Group: "schema", Status: "warn",
				Detail: fmt.Sprintf("%d of %d tables are empty", empty, len(tables)),
			})
		} else {
			checks = append(checks, HealthCheck{
				Name: "Empty tables", Group: "schema", Status: "pass",
			})
		}
	}

	// Maintenance checks
	latest, err := cmdCtx.History.LatestBackup()
	switch {
	case err != nil:
		checks = append(checks, HealthCheck{
			Name: "Backups", Group: "maintenance", Status: "error",
			Detail: err.Error(),
		})
	case latest == nil:
		checks = append(checks, HealthCheck{
			Name: "Backups", Group: "maintenance", Status: "warn",
			Detail: "no backups recorded",
		})
	case time.Since(latest.CreatedAt) > 7*24*time.Hour:
		checks = append(checks, HealthCheck{
			Name: "Backups", Group: "maintenance", Status: "warn",
			Detail: fmt.Sprintf("last backup was %s", latest.CreatedAt.Format(time.DateOnly)),
		})
	default:
		checks = append(checks, HealthCheck{
			Name: "Backups", Group: "maintenance", Status: "pass",
		})
	}

	return &DoctorOutput{
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      countIssues(checks),
	}
}

func countIssues(checks []HealthCheck) int {
	n := 0
	for _, c := range checks {
		if c.Status != "pass" {
			n++
		}
	}
	return n
}

// calculateHealthScore computes a health score from 0-100.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= 25
		case "warn":
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recs []string
	for _, check := range checks {
		if check.Status == "pass" {
			continue
		}
		switch check.Name {
		case "Free space":
			recs = append(recs, "Run 'redduck vacuum' to reclaim free space")
		case "Empty tables":
			recs = append(recs, "Drop or populate empty tables")
		case "Backups":
			recs = append(recs, "Run 'redduck backup <dir>' to create a backup")
		case "Database file":
			recs = append(recs, "Check the database path and file permissions")
		}
	}
	return recs
}

func renderDoctorText(cmd *cobra.Command, out *DoctorOutput) error {
	w := cmd.OutOrStdout()
	titleCaser := cases.Title(language.English)

	_, _ = fmt.Fprintln(w, "Database Health Report")
	_, _ = fmt.Fprintln(w, "======================")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			_, _ = fmt.Fprintf(w, "\n%s\n", titleCaser.String(currentGroup))
		}

		icon := "ok  "
		switch check.Status {
		case "warn":
			icon = "warn"
		case "error":
			icon = "FAIL"
		}
		line := fmt.Sprintf("  [%s] %s", icon, check.Name)
		if check.Detail != "" {
			line += " - " + check.Detail
		}
		_, _ = fmt.Fprintln(w, line)
	}

	_, _ = fmt.Fprintf(w, "\nHealth Score: %d/100\n", out.Score)

	if len(out.Recommendations) > 0 {
		_, _ = fmt.Fprintln(w, "\nRecommendations:")
		for i, rec := range out.Recommendations {
			_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}

	return nil
}
