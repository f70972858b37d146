package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/database"
	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/pkg/jwt"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

type ctlEnv struct {
	configPath string
	dbPath     string
	redis      *miniredis.Miniredis
}

func setupCtl(t *testing.T) *ctlEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ctl.db")
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
database:
  driver: sqlite
  path: %s
  auto_migrate: true
redis:
  host: %s
  port: %s
jwt:
  secret: ctl-secret
  expire_hours: 2
queue:
  analysis_queue: ctl_jobs
pipeline:
  stale_after: 1m
  retain_days: 7
log:
  level: error
`, dbPath, host, port)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return &ctlEnv{configPath: configPath, dbPath: dbPath, redis: mr}
}

// openDB opens the command's sqlite file with every table migrated.
func (e *ctlEnv) openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(e.dbPath), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return db
}

func (e *ctlEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	env := setupCtl(t)

	out, err := env.run(t, "token", "--user-id", "42")
	require.NoError(t, err)

	claims, err := jwt.ParseToken(strings.TrimSpace(out), "ctl-secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = env.run(t, "token")
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	env := setupCtl(t)
	db := env.openDB(t)
	user := testutil.TestUser(t, db)
	testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusQueued)
	testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusFailed)
	testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusFailed)
	_, err := env.redis.Lpush("ctl_jobs", `{"job_id":1}`)
	require.NoError(t, err)

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "queued     1")
	assert.Contains(t, out, "failed     2")
	assert.Contains(t, out, "running    0")
	assert.Contains(t, out, `queue "ctl_jobs": 1 waiting, 0 in flight, 0 delayed`)
}

func TestRecoverCommand(t *testing.T) {
	env := setupCtl(t)
	db := env.openDB(t)
	user := testutil.TestUser(t, db)
	stale := testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusRunning,
		testutil.WithStartedAgo(10*time.Minute))
	testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusRunning)

	out, err := env.run(t, "recover")
	require.NoError(t, err)
	assert.Contains(t, out, "requeued 1 stale job(s)")

	var got model.AnalysisJob
	require.NoError(t, db.First(&got, stale.ID).Error)
	assert.Equal(t, model.JobStatusQueued, got.Status)

	waiting, err := env.redis.List("ctl_jobs")
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Contains(t, waiting[0], `"job_id":`+strconv.FormatInt(stale.ID, 10))
}

func TestPurgeCommand(t *testing.T) {
	env := setupCtl(t)
	db := env.openDB(t)
	user := testutil.TestUser(t, db)
	old := testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusSucceeded,
		testutil.WithCompletedAgo(10*24*time.Hour))
	recent := testutil.TestJob(t, db, testutil.TestEntry(t, db, user.ID), model.JobStatusSucceeded,
		testutil.WithCompletedAgo(24*time.Hour))

	out, err := env.run(t, "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 1 job(s) older than 7 day(s)")

	assert.ErrorIs(t, db.First(&model.AnalysisJob{}, old.ID).Error, gorm.ErrRecordNotFound)
	assert.NoError(t, db.First(&model.AnalysisJob{}, recent.ID).Error)

	out, err = env.run(t, "purge", "--retain-days", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 0 job(s)")
}

func TestStatusOrder(t *testing.T) {
	got := statusOrder(map[string]int64{"zombie": 1, model.JobStatusQueued: 2, "archived": 3})
	assert.Equal(t, []string{
		model.JobStatusQueued,
		model.JobStatusRunning,
		model.JobStatusSucceeded,
		model.JobStatusFailed,
		model.JobStatusCancelled,
		"archived",
		"zombie",
	}, got)
}
