package vm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/ulimit"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/thesecretlab-dev/multitoken/badgerdb"
	"github.com/thesecretlab-dev/multitoken/consts"
)

const Namespace = "multitoken"

type Config struct {
	// DBBackend is one of memdb, leveldb or badgerdb.
	DBBackend   string `json:"dbBackend"`
	DBPath      string `json:"dbPath"`
	LogLevel    string `json:"logLevel"`
	IdentityHRP string `json:"identityHrp"`
	Metrics     bool   `json:"metrics"`
}

func NewDefaultConfig() Config {
	return Config{
		DBBackend: leveldb.Name,
		DBPath:    "." + consts.Name,
		LogLevel:  logging.Info.String(),
		Metrics:   true,
	}
}

// LoadConfig reads path over the defaults, then applies environment
// overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not parse config %q: %w", path, err)
		}
	}
	return resolveEnv(cfg), nil
}

func resolveEnv(cfg Config) Config {
	if v, ok := getEnv("MULTITOKEN_DB_BACKEND"); ok {
		cfg.DBBackend = v
	}
	if v, ok := getEnv("MULTITOKEN_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnv("MULTITOKEN_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnv("MULTITOKEN_IDENTITY_HRP"); ok {
		cfg.IdentityHRP = v
	}
	if v, ok := parseEnvBool("MULTITOKEN_METRICS"); ok {
		cfg.Metrics = v
	}
	return cfg
}

// NewLogger builds a console logger writing to stderr at the configured
// level.
func NewLogger(cfg Config) (logging.Logger, error) {
	level, err := logging.ToLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(
		consts.Name,
		logging.NewWrappedCore(level, os.Stderr, logging.Plain.ConsoleEncoder()),
	), nil
}

// OpenDatabase opens the configured backend. Disk backends try to raise the
// file descriptor limit first.
func OpenDatabase(cfg Config, log logging.Logger, reg prometheus.Registerer) (database.Database, error) {
	switch cfg.DBBackend {
	case memdb.Name:
		return memdb.New(), nil
	case leveldb.Name:
		raiseFDLimit(log)
		return leveldb.New(cfg.DBPath, nil, log, reg)
	case badgerdb.Name:
		raiseFDLimit(log)
		return badgerdb.New(cfg.DBPath, log)
	default:
		return nil, fmt.Errorf("unknown db backend %q", cfg.DBBackend)
	}
}

func raiseFDLimit(log logging.Logger) {
	if err := ulimit.Set(ulimit.DefaultFDLimit, log); err != nil {
		log.Warn("could not raise fd limit", zap.Error(err))
	}
}

func parseEnvBool(name string) (bool, bool) {
	v, ok := getEnv(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func getEnv(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", false
	}
	return v, true
}
