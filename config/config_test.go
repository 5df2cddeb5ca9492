package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bin3/toyml/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "toyml.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
	return fn
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultOptions(), cfg.Train)
	assert.Equal(t, "bolt", cfg.Journal.Engine)
	assert.Empty(t, cfg.Journal.Path)
	assert.Equal(t, 100, cfg.TopNWord)
	assert.True(t, cfg.DictDetailed)
}

func TestFileOverridesDefaults(t *testing.T) {
	fn := writeFile(t, `
docpath: data/user-words.txt
followeepath: data/user-cels.txt
dictpath: out/dict.txt
metrics_addr: ":9090"
journal:
  path: out/journal.db
  engine: kv
train:
  topics: 20
  iters: 300
  variant: background
  lambda: 0.5
  super_celebrity: true
  threads: 4
  datadir: out
`)
	cfg, err := Load(fn)
	require.NoError(t, err)
	assert.Equal(t, "data/user-words.txt", cfg.DocPath)
	assert.Equal(t, "data/user-cels.txt", cfg.FolloweePath)
	assert.Equal(t, "out/dict.txt", cfg.DictPath)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, JournalConfig{Path: "out/journal.db", Engine: "kv"}, cfg.Journal)
	assert.Equal(t, 20, cfg.Train.Topics)
	assert.Equal(t, 300, cfg.Train.Iters)
	assert.Equal(t, "background", cfg.Train.Variant)
	assert.Equal(t, 0.5, cfg.Train.Lambda)
	assert.True(t, cfg.Train.SuperCelebrity)
	assert.Equal(t, 4, cfg.Train.Threads)
	assert.Equal(t, "out", cfg.Train.DataDir)

	// untouched keys keep their defaults
	assert.Equal(t, 1e-3, cfg.Train.Eps)
	assert.Equal(t, "\t", cfg.Train.Separator)
	assert.Equal(t, "final", cfg.Train.FinalSuffix)
}

func TestEnvOverridesFile(t *testing.T) {
	fn := writeFile(t, "train:\n  topics: 20\n")
	t.Setenv("TOYML_TRAIN_TOPICS", "7")
	t.Setenv("TOYML_TRAIN_LOG_INTERVAL", "3")
	t.Setenv("TOYML_TRAIN_RANDOM", "true")
	t.Setenv("TOYML_JOURNAL_ENGINE", "kv")
	t.Setenv("TOYML_METRICS_ADDR", "localhost:9100")
	t.Setenv("TOYML_DICT_DETAILED", "false")

	cfg, err := Load(fn)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Train.Topics)
	assert.Equal(t, 3, cfg.Train.LogInterval)
	assert.True(t, cfg.Train.Random)
	assert.Equal(t, "kv", cfg.Journal.Engine)
	assert.Equal(t, "localhost:9100", cfg.MetricsAddr)
	assert.False(t, cfg.DictDetailed)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "train.log_interval", envTransformFunc("TOYML_TRAIN_LOG_INTERVAL"))
	assert.Equal(t, "journal.path", envTransformFunc("TOYML_JOURNAL_PATH"))
	assert.Equal(t, "top_wordpath", envTransformFunc("TOYML_TOP_WORDPATH"))
}

func TestInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"topics":  "train:\n  topics: 0\n",
		"threads": "train:\n  threads: -2\n",
		"engine":  "journal:\n  engine: leveldb\n",
		"variant": "train:\n  variant: hybrid\n",
	} {
		_, err := Load(writeFile(t, content))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
