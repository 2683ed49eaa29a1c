package vm

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/thesecretlab-dev/multitoken/actions"
	"github.com/thesecretlab-dev/multitoken/genesis"
	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"
)

// Ledger runs actions and queries against a database. Calls are serialized
// and each one is applied in a single transaction: either every write of the
// call is committed or none is.
type Ledger struct {
	lock sync.RWMutex

	db        database.Database
	validator identity.Validator
	notifier  Notifier
	log       logging.Logger
	metrics   *metrics
}

type Option func(*Ledger)

func WithValidator(v identity.Validator) Option {
	return func(l *Ledger) {
		l.validator = v
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		l.notifier = n
	}
}

func WithLogger(log logging.Logger) Option {
	return func(l *Ledger) {
		l.log = log
	}
}

// New wraps db. Metrics are registered on reg; a nil reg uses a private
// registry.
func New(db database.Database, reg prometheus.Registerer, options ...Option) (*Ledger, error) {
	l := &Ledger{
		db:        db,
		validator: identity.Plain{},
		log:       logging.NoLog{},
	}
	for _, option := range options {
		option(l)
	}
	if l.notifier == nil {
		l.notifier = LogNotifier{Log: l.log}
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	l.metrics = m
	return l, nil
}

func (l *Ledger) Validator() identity.Validator {
	return l.validator
}

// Initialize creates the collection described by g on behalf of sender.
func (l *Ledger) Initialize(ctx context.Context, g *genesis.Genesis, sender string) (storage.Config, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	actor, err := l.validator.Validate(sender)
	if err != nil {
		return storage.Config{}, err
	}
	var cfg storage.Config
	if err := l.update(func(mu *storage.View) error {
		cfg, err = g.InitializeState(ctx, l.validator, mu, actor)
		return err
	}); err != nil {
		return storage.Config{}, err
	}
	l.log.Info("collection initialized",
		zap.String("name", cfg.Name),
		zap.Stringer("owner", cfg.Owner),
		zap.Stringer("minter", cfg.Minter),
	)
	return cfg, nil
}

// ContractInfo returns the name and version recorded when the collection was
// initialized.
func (l *Ledger) ContractInfo(ctx context.Context) (storage.ContractInfo, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return storage.GetContractInfo(ctx, storage.NewView(l.db))
}

// Execute runs a on behalf of caller at env. Receive notifications are handed
// to the notifier after the call is committed.
func (l *Ledger) Execute(ctx context.Context, env actions.Env, caller string, a actions.Action) (*actions.Result, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	name := actions.Name(a.GetTypeID())
	result, err := l.execute(ctx, env, caller, a)
	l.metrics.calls.WithLabelValues(name, status(err)).Inc()
	if err != nil {
		l.log.Debug("call rejected",
			zap.String("action", name),
			zap.String("caller", caller),
			zap.Error(err),
		)
		return nil, err
	}
	l.log.Debug("call committed",
		zap.String("action", name),
		zap.String("caller", caller),
		zap.Uint64("height", env.Height),
		zap.Any("attributes", result.Attributes),
	)
	if result.Notification != nil {
		l.notify(ctx, result.Notification)
	}
	return result, nil
}

// ExecuteBytes decodes an encoded action and executes it.
func (l *Ledger) ExecuteBytes(ctx context.Context, env actions.Env, caller string, b []byte) (*actions.Result, error) {
	a, err := actions.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	return l.Execute(ctx, env, caller, a)
}

func (l *Ledger) execute(ctx context.Context, env actions.Env, caller string, a actions.Action) (*actions.Result, error) {
	actor, err := l.validator.Validate(caller)
	if err != nil {
		return nil, err
	}
	var result *actions.Result
	err = l.update(func(mu *storage.View) error {
		result, err = a.Execute(ctx, l.validator, mu, env, actor)
		return err
	})
	return result, err
}

// update runs f against a fresh version of the database and commits its
// writes only when f succeeds.
func (l *Ledger) update(f func(mu *storage.View) error) error {
	vdb := versiondb.New(l.db)
	if err := f(storage.NewView(vdb)); err != nil {
		vdb.Abort()
		return err
	}
	return vdb.Commit()
}

func (l *Ledger) notify(ctx context.Context, n *actions.ReceiveNotification) {
	if err := l.notifier.Notify(ctx, n); err != nil {
		l.metrics.notifyFailures.Inc()
		l.log.Warn("receive notification failed",
			zap.Stringer("recipient", n.Recipient),
			zap.Uint64("id", n.ID),
			zap.Error(err),
		)
		return
	}
	l.metrics.notifications.Inc()
}
