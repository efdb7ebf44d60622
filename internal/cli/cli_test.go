package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	gdb, err := db.Open("file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	out := &bytes.Buffer{}
	return &App{
		DB:       gdb,
		Location: time.UTC,
		Out:      out,
		Now: func() time.Time {
			return time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
		},
	}, out
}

func execute(app *App, args ...string) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	return root.Execute()
}

func TestPeriodsCommand(t *testing.T) {
	app, out := newTestApp(t)

	require.NoError(t, execute(app, "periods", "--year", "2025", "--kind", "monthly"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 12)
	assert.True(t, strings.HasPrefix(lines[0], "2025-01"))
	assert.Contains(t, lines[1], "2025-02-01 ~ 2025-02-28")
}

func TestPeriodsCommandRejectsUnknownKind(t *testing.T) {
	app, _ := newTestApp(t)

	err := execute(app, "periods", "--kind", "daily")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily")
}

func TestSeedThenRecompute(t *testing.T) {
	app, out := newTestApp(t)

	require.NoError(t, execute(app, "seed", "--days", "14"))
	assert.Contains(t, out.String(), "创建习惯 3 个")

	habits, err := service.NewHabitService(app.DB).List(context.Background(), service.HabitFilter{})
	require.NoError(t, err)
	require.Len(t, habits, 3)

	var journalCount int64
	require.NoError(t, app.DB.Model(&db.JournalEntry{}).Count(&journalCount).Error)
	assert.Equal(t, int64(5), journalCount)

	out.Reset()
	require.NoError(t, execute(app, "seed"))
	assert.Contains(t, out.String(), "跳过")

	out.Reset()
	require.NoError(t, execute(app, "recompute-fines", "--year", "2025"))
	assert.Contains(t, out.String(), "year 2025:")
	assert.Contains(t, out.String(), "0 removed")
}

func TestSeedRejectsNonPositiveDays(t *testing.T) {
	app, _ := newTestApp(t)

	require.Error(t, execute(app, "seed", "--days", "0"))
}

func TestRebuildProgressSkipsFreeTextHabits(t *testing.T) {
	app, out := newTestApp(t)
	require.NoError(t, execute(app, "seed", "--days", "7"))

	out.Reset()
	require.NoError(t, execute(app, "rebuild-progress", "--year", "2025"))

	text := out.String()
	assert.Contains(t, text, "Smoking:")
	assert.Contains(t, text, "Exercise:")
	assert.NotContains(t, text, "Gratitude")
}

func TestSeedValueLeavesGaps(t *testing.T) {
	values := []string{"Done", "Skipped"}

	assert.Equal(t, "", seedValue(values, 6))
	assert.Equal(t, "", seedValue(nil, 0))
	assert.Contains(t, values, seedValue(values, 3))
}
