package i18n

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/tests"
)

func TestCatalog_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newTestCatalog(t)
	logger := testutil.NewLogger(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.json"), []byte(`{"monday": "LUNES"}`), 0o644))

	require.NoError(t, c.Watch(ctx, dir, logger))

	// files present at start are applied right away
	assert.Equal(t, "LUNES", c.T("es", "monday"))
	assert.Equal(t, "Hoy", c.T("es", "today"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"today": "Today"}`), 0o644))
	assert.Eventually(t, func() bool {
		return c.T("en", "today") == "Today"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Monday", c.T("en", "monday"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.json"), []byte(`{"monday": "Dilluns?"}`), 0o644))
	assert.Eventually(t, func() bool {
		return c.T("es", "monday") == "Dilluns?"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCatalog_Watch_errors(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewLogger(t)

	c := newTestCatalog(t)
	assert.Error(t, c.Watch(ctx, filepath.Join(t.TempDir(), "missing"), logger))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.json"), []byte(`{not json`), 0o644))
	assert.Error(t, c.Watch(ctx, dir, logger))
	assert.Equal(t, "Lunes", c.T("es", "monday"))
}
