package vm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/thesecretlab-dev/multitoken/badgerdb"
)

func TestLoadConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := LoadConfig("")
	require.NoError(err)
	require.Equal(NewDefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(os.WriteFile(path, []byte(`{"dbBackend":"memdb","identityHrp":"multi"}`), 0o600))
	cfg, err = LoadConfig(path)
	require.NoError(err)
	require.Equal(memdb.Name, cfg.DBBackend)
	require.Equal("multi", cfg.IdentityHRP)
	require.True(cfg.Metrics)

	t.Setenv("MULTITOKEN_DB_BACKEND", badgerdb.Name)
	t.Setenv("MULTITOKEN_DB_PATH", "/tmp/elsewhere")
	t.Setenv("MULTITOKEN_LOG_LEVEL", "debug")
	t.Setenv("MULTITOKEN_METRICS", "off")
	cfg, err = LoadConfig(path)
	require.NoError(err)
	require.Equal(Config{
		DBBackend:   badgerdb.Name,
		DBPath:      "/tmp/elsewhere",
		LogLevel:    "debug",
		IdentityHRP: "multi",
		Metrics:     false,
	}, cfg)

	t.Setenv("MULTITOKEN_METRICS", "maybe")
	cfg, err = LoadConfig(path)
	require.NoError(err)
	require.True(cfg.Metrics)

	require.NoError(os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadConfig(path)
	require.Error(err)
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(Config{LogLevel: "verbo"})
	require.NoError(t, err)
	_, err = NewLogger(Config{LogLevel: "loud"})
	require.Error(t, err)
}

func TestOpenDatabase(t *testing.T) {
	require := require.New(t)
	log := logging.NoLog{}
	reg := prometheus.NewRegistry()

	db, err := OpenDatabase(Config{DBBackend: memdb.Name}, log, reg)
	require.NoError(err)
	require.NoError(db.Close())

	db, err = OpenDatabase(Config{DBBackend: badgerdb.Name, DBPath: t.TempDir()}, log, reg)
	require.NoError(err)
	require.NoError(db.Put([]byte("k"), []byte("v")))
	require.NoError(db.Close())

	_, err = OpenDatabase(Config{DBBackend: "rocksdb"}, log, reg)
	require.ErrorContains(err, "unknown db backend")
}
