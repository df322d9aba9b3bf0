package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/gigflow-be/internal/worker/domain"
	"github.com/cuongbtq/gigflow-be/shared/database"
	"github.com/cuongbtq/gigflow-be/shared/logger"
)

// writeConfig points a minimal config at a fresh SQLite file
func writeConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()

	dir := t.TempDir()
	dbPath = filepath.Join(dir, "gigctl.db")
	configPath = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf("database:\n  driver: sqlite3\n  path: %s\naudit:\n  concurrency: 2\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func seedViolation(t *testing.T, dbPath string) string {
	t.Helper()

	client, err := database.NewClient(&database.Config{
		Driver: string(database.DriverSQLite),
		Path:   dbPath,
	}, logger.NewNop().Logger)
	require.NoError(t, err)
	defer client.Close()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	db := client.GetDB()
	_, err = db.Exec(`INSERT INTO gigs (id, owner_id, title, description, budget, status, created_at, updated_at)
		VALUES ('gig-1', 'owner', 't', 'd', 100, 'assigned', ?, ?)`, at, at)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO bids (id, gig_id, bidder_id, message, price, status, created_at, updated_at)
		VALUES ('bid-1', 'gig-1', 'alice', 'm', 50, 'pending', ?, ?)`, at, at)
	require.NoError(t, err)

	return "gig-1"
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	configPath, _ := writeConfig(t)

	_, err := execute(t, "--config", configPath, "--format", "yaml", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMigrate(t *testing.T) {
	configPath, _ := writeConfig(t)

	out, err := execute(t, "--config", configPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema applied (sqlite3, 6 statements)")

	// Applying twice is harmless
	out, err = execute(t, "--config", configPath, "--format", "json", "migrate")
	require.NoError(t, err)

	var result MigrateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, MigrateResult{Status: "ok", Driver: "sqlite3", Statements: 6}, result)
}

func TestMigrateMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestAuditClean(t *testing.T) {
	configPath, _ := writeConfig(t)
	_, err := execute(t, "--config", configPath, "migrate")
	require.NoError(t, err)

	out, err := execute(t, "--config", configPath, "audit", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked 0 gigs")
	assert.Contains(t, out, "✓ No violations found")
}

func TestAuditReportsViolations(t *testing.T) {
	configPath, dbPath := writeConfig(t)
	_, err := execute(t, "--config", configPath, "migrate")
	require.NoError(t, err)
	gigID := seedViolation(t, dbPath)

	out, err := execute(t, "--config", configPath, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "✗ 2 violations:")
	assert.Contains(t, out, gigID)
	assert.Contains(t, out, domain.RuleAssignedHiredCount)
	assert.Contains(t, out, domain.RuleAssignedHasPending)

	out, err = execute(t, "--config", configPath, "--format", "json", "audit", "--strict")
	assert.ErrorIs(t, err, ErrFindings)

	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.GigsChecked)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, domain.RuleAssignedHiredCount, report.Findings[0].Rule)
	assert.Equal(t, domain.RuleAssignedHasPending, report.Findings[1].Rule)
}
