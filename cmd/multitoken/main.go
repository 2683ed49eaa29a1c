package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thesecretlab-dev/multitoken/actions"
	"github.com/thesecretlab-dev/multitoken/cmd/multitoken/version"
	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"
	"github.com/thesecretlab-dev/multitoken/vm"
)

var (
	configPath  string
	metricsPath string
	height      uint64
	timestamp   int64
)

var rootCmd = &cobra.Command{
	Use:          "multitoken",
	Short:        "Multi-token ledger",
	SuggestFor:   []string{"multitoken"},
	SilenceUsage: true,
}

func init() {
	cobra.EnablePrefixMatching = true
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a JSON config file")
	flags.StringVar(&metricsPath, "metrics-file", "", "write metrics in text format to this file on exit")

	rootCmd.AddCommand(
		newInitCommand(),
		newExecCommand(),
		newQueryCommand(),
		newKeygenCommand(),
		newSmokeCommand(),
		version.NewCommand(storedContract),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "multitoken failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// addEnvFlags registers the block context flags used by exec and query.
func addEnvFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&height, "height", 0, "block height the call executes at")
	cmd.Flags().Int64Var(&timestamp, "time", 0, "block time in unix nanoseconds (default now)")
}

func blockEnv() actions.Env {
	t := timestamp
	if t <= 0 {
		t = time.Now().UnixNano()
	}
	return actions.Env{Height: height, Time: uint64(t)}
}

type session struct {
	cfg      vm.Config
	log      logging.Logger
	db       database.Database
	registry *prometheus.Registry
	ledger   *vm.Ledger
}

func openSession() (*session, error) {
	cfg, err := vm.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := vm.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	db, err := vm.OpenDatabase(cfg, log, registry)
	if err != nil {
		return nil, err
	}
	ledger, err := vm.New(db, registry,
		vm.WithLogger(log),
		vm.WithValidator(identity.New(cfg.IdentityHRP)),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("opened ledger",
		zap.String("backend", cfg.DBBackend),
		zap.String("path", cfg.DBPath),
	)
	return &session{cfg: cfg, log: log, db: db, registry: registry, ledger: ledger}, nil
}

func (s *session) Close() error {
	if s.cfg.Metrics && metricsPath != "" {
		if err := prometheus.WriteToTextfile(metricsPath, s.registry); err != nil {
			s.log.Warn("could not write metrics", zap.Error(err))
		}
	}
	return s.db.Close()
}

func storedContract(ctx context.Context) (storage.ContractInfo, error) {
	s, err := openSession()
	if err != nil {
		return storage.ContractInfo{}, err
	}
	info, err := s.ledger.ContractInfo(ctx)
	return info, errors.Join(err, s.Close())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("could not parse arguments: %w", err)
	}
	return nil
}
