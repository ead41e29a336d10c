package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
)

const cliTestConfig = `
parser:
  area: 1
  search_period: 14
  search_text: "golang developer"
  search_regex: "go(lang)?"
postgres:
  host: localhost
  user: hh
  name: hh_parser
email:
  server: smtp.example.com
  email_from: reports@example.com
  email_to: [team@example.com]
schedule: "30 8 * * *"
`

func setupConfigsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golang.yml"), []byte(cliTestConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ExampleFileName), []byte("parser: {}"), 0o644))

	prevDir, prevNames, prevSchedule := configsDir, configNames, schedule
	t.Cleanup(func() {
		configsDir, configNames, schedule = prevDir, prevNames, prevSchedule
	})
	configsDir = dir
	configNames = nil
	schedule = defaultSchedule
	return dir
}

func TestResolveConfigPaths(t *testing.T) {
	dir := setupConfigsDir(t)

	t.Run("all runnable configs by default", func(t *testing.T) {
		paths, err := resolveConfigPaths()
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "golang.yml")}, paths)
	})

	t.Run("narrowed to requested names", func(t *testing.T) {
		configNames = []string{"golang.yml"}
		paths, err := resolveConfigPaths()
		require.NoError(t, err)
		assert.Len(t, paths, 1)
	})

	t.Run("unknown name is an error", func(t *testing.T) {
		configNames = []string{"missing.yml"}
		_, err := resolveConfigPaths()
		assert.Error(t, err)
	})
}

func TestResolveSchedule(t *testing.T) {
	setupConfigsDir(t)

	t.Run("config schedule wins over the default", func(t *testing.T) {
		spec, err := resolveSchedule()
		require.NoError(t, err)
		assert.Equal(t, "30 8 * * *", spec)
	})

	t.Run("explicit flag wins over configs", func(t *testing.T) {
		schedule = "0 12 * * *"
		spec, err := resolveSchedule()
		require.NoError(t, err)
		assert.Equal(t, "0 12 * * *", spec)
	})
}
