package vm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/thesecretlab-dev/multitoken/actions"
	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"
)

var ErrUnknownQuery = errors.New("unknown query")

// Query is one read request. The set is closed; Ledger.Query handles every
// implementation.
type Query interface {
	QueryName() string
}

var (
	_ Query = (*ConfigArgs)(nil)
	_ Query = (*TokenInfoArgs)(nil)
	_ Query = (*TokensInfoArgs)(nil)
	_ Query = (*BalanceArgs)(nil)
	_ Query = (*BatchBalanceArgs)(nil)
	_ Query = (*IsApprovedForAllArgs)(nil)
	_ Query = (*ApprovalsByOwnerArgs)(nil)
	_ Query = (*ApprovalsByOperatorArgs)(nil)
	_ Query = (*BalancesByOwnerArgs)(nil)
	_ Query = (*BalancesByIDArgs)(nil)
)

type ConfigArgs struct{}

type ConfigReply struct {
	MetadataURI      string  `json:"metadata_uri"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Owner            *string `json:"owner"`
	Minter           *string `json:"minter"`
	RegisteredTokens uint64  `json:"registered_tokens"`
}

type TokenInfoArgs struct {
	ID uint64 `json:"id"`
}

type TokensInfoArgs struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type TokensInfoReply struct {
	Tokens []storage.TokenEntry `json:"tokens"`
}

type BalanceArgs struct {
	Owner string `json:"owner"`
	ID    uint64 `json:"id"`
}

type BalanceReply struct {
	Balance uint64 `json:"balance"`
}

type BatchBalanceArgs struct {
	Owner string   `json:"owner"`
	IDs   []uint64 `json:"ids"`
}

type BatchBalanceReply struct {
	Balances []uint64 `json:"balances"`
}

type IsApprovedForAllArgs struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// IsApprovedForAllReply carries the stored grant, expired or not, and whether
// it is still live.
type IsApprovedForAllReply struct {
	Approved   bool                `json:"approved"`
	Expiration *storage.Expiration `json:"expiration"`
}

type ApprovalsByOwnerArgs struct {
	Owner      string  `json:"owner"`
	StartAfter *string `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ApprovalsByOperatorArgs struct {
	Operator   string  `json:"operator"`
	StartAfter *string `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ApprovalsReply struct {
	Approvals []storage.Approval `json:"approvals"`
}

type BalancesByOwnerArgs struct {
	Owner      string  `json:"owner"`
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type BalancesByIDArgs struct {
	ID         uint64  `json:"id"`
	StartAfter *string `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type BalancesReply struct {
	Balances []storage.BalanceEntry `json:"balances"`
}

func (*ConfigArgs) QueryName() string              { return "config" }
func (*TokenInfoArgs) QueryName() string           { return "token_info" }
func (*TokensInfoArgs) QueryName() string          { return "tokens_info" }
func (*BalanceArgs) QueryName() string             { return "balance" }
func (*BatchBalanceArgs) QueryName() string        { return "batch_balance" }
func (*IsApprovedForAllArgs) QueryName() string    { return "is_approved_for_all" }
func (*ApprovalsByOwnerArgs) QueryName() string    { return "approvals_by_owner" }
func (*ApprovalsByOperatorArgs) QueryName() string { return "approvals_by_operator" }
func (*BalancesByOwnerArgs) QueryName() string     { return "balances_by_owner" }
func (*BalancesByIDArgs) QueryName() string        { return "balances_by_id" }

// ParseQuery decodes the JSON arguments of the named query.
func ParseQuery(name string, args []byte) (Query, error) {
	var q Query
	switch name {
	case "config":
		q = &ConfigArgs{}
	case "token_info":
		q = &TokenInfoArgs{}
	case "tokens_info":
		q = &TokensInfoArgs{}
	case "balance":
		q = &BalanceArgs{}
	case "batch_balance":
		q = &BatchBalanceArgs{}
	case "is_approved_for_all":
		q = &IsApprovedForAllArgs{}
	case "approvals_by_owner":
		q = &ApprovalsByOwnerArgs{}
	case "approvals_by_operator":
		q = &ApprovalsByOperatorArgs{}
	case "balances_by_owner":
		q = &BalancesByOwnerArgs{}
	case "balances_by_id":
		q = &BalancesByIDArgs{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	if len(args) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(args, q); err != nil {
		return nil, fmt.Errorf("could not parse %s args: %w", name, err)
	}
	return q, nil
}

// Query answers q at env. The reply is the pointer type matching q, for
// example *BalanceReply for *BalanceArgs.
func (l *Ledger) Query(ctx context.Context, env actions.Env, q Query) (any, error) {
	if isNil(q) {
		return nil, fmt.Errorf("%w: nil query", ErrUnknownQuery)
	}

	l.lock.RLock()
	defer l.lock.RUnlock()

	reply, err := l.query(ctx, env, q)
	l.metrics.queries.WithLabelValues(q.QueryName(), status(err)).Inc()
	return reply, err
}

func (l *Ledger) query(ctx context.Context, env actions.Env, q Query) (any, error) {
	r := storage.NewView(l.db)
	switch q := q.(type) {
	case *ConfigArgs:
		return l.config(ctx, r)
	case *TokenInfoArgs:
		return l.tokenInfo(ctx, r, q)
	case *TokensInfoArgs:
		tokens, err := storage.TokensInfo(ctx, r, q.StartAfter, q.Limit)
		if err != nil {
			return nil, err
		}
		return &TokensInfoReply{Tokens: tokens}, nil
	case *BalanceArgs:
		return l.balance(ctx, r, q)
	case *BatchBalanceArgs:
		return l.batchBalance(ctx, r, q)
	case *IsApprovedForAllArgs:
		return l.isApprovedForAll(ctx, r, env, q)
	case *ApprovalsByOwnerArgs:
		return l.approvalsByOwner(ctx, r, q)
	case *ApprovalsByOperatorArgs:
		return l.approvalsByOperator(ctx, r, q)
	case *BalancesByOwnerArgs:
		return l.balancesByOwner(ctx, r, q)
	case *BalancesByIDArgs:
		return l.balancesByID(ctx, r, q)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownQuery, q)
	}
}

func (*Ledger) config(ctx context.Context, r storage.Reader) (*ConfigReply, error) {
	cfg, err := storage.GetConfig(ctx, r)
	if err != nil {
		return nil, err
	}
	n, err := storage.GetRegisteredTokens(ctx, r)
	if err != nil {
		return nil, err
	}
	return &ConfigReply{
		MetadataURI:      cfg.MetadataURI,
		Name:             cfg.Name,
		Description:      cfg.Description,
		Owner:            optional(cfg.Owner),
		Minter:           optional(cfg.Minter),
		RegisteredTokens: n,
	}, nil
}

func (*Ledger) tokenInfo(ctx context.Context, r storage.Reader, q *TokenInfoArgs) (*storage.TokenInfo, error) {
	if err := storage.AssertRegistered(ctx, r, q.ID); err != nil {
		return nil, err
	}
	info, err := storage.GetTokenInfo(ctx, r, q.ID)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (l *Ledger) balance(ctx context.Context, r storage.Reader, q *BalanceArgs) (*BalanceReply, error) {
	owner, err := l.validator.Validate(q.Owner)
	if err != nil {
		return nil, err
	}
	if err := storage.AssertRegistered(ctx, r, q.ID); err != nil {
		return nil, err
	}
	bal, err := storage.GetBalance(ctx, r, owner, q.ID)
	if err != nil {
		return nil, err
	}
	return &BalanceReply{Balance: bal}, nil
}

func (l *Ledger) batchBalance(ctx context.Context, r storage.Reader, q *BatchBalanceArgs) (*BatchBalanceReply, error) {
	owner, err := l.validator.Validate(q.Owner)
	if err != nil {
		return nil, err
	}
	balances := make([]uint64, 0, len(q.IDs))
	for _, id := range q.IDs {
		if err := storage.AssertRegistered(ctx, r, id); err != nil {
			return nil, err
		}
		bal, err := storage.GetBalance(ctx, r, owner, id)
		if err != nil {
			return nil, err
		}
		balances = append(balances, bal)
	}
	return &BatchBalanceReply{Balances: balances}, nil
}

func (l *Ledger) isApprovedForAll(ctx context.Context, r storage.Reader, env actions.Env, q *IsApprovedForAllArgs) (*IsApprovedForAllReply, error) {
	owner, err := l.validator.Validate(q.Owner)
	if err != nil {
		return nil, err
	}
	operator, err := l.validator.Validate(q.Operator)
	if err != nil {
		return nil, err
	}
	exp, ok, err := storage.GetApproval(ctx, r, owner, operator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &IsApprovedForAllReply{}, nil
	}
	return &IsApprovedForAllReply{
		Approved:   !exp.IsExpired(env.Height, env.Time),
		Expiration: &exp,
	}, nil
}

func (l *Ledger) approvalsByOwner(ctx context.Context, r storage.Reader, q *ApprovalsByOwnerArgs) (*ApprovalsReply, error) {
	owner, err := l.validator.Validate(q.Owner)
	if err != nil {
		return nil, err
	}
	startAfter, err := l.cursor(q.StartAfter)
	if err != nil {
		return nil, err
	}
	approvals, err := storage.ApprovalsByOwner(ctx, r, owner, startAfter, q.Limit)
	if err != nil {
		return nil, err
	}
	return &ApprovalsReply{Approvals: approvals}, nil
}

func (l *Ledger) approvalsByOperator(ctx context.Context, r storage.Reader, q *ApprovalsByOperatorArgs) (*ApprovalsReply, error) {
	operator, err := l.validator.Validate(q.Operator)
	if err != nil {
		return nil, err
	}
	startAfter, err := l.cursor(q.StartAfter)
	if err != nil {
		return nil, err
	}
	approvals, err := storage.ApprovalsByOperator(ctx, r, operator, startAfter, q.Limit)
	if err != nil {
		return nil, err
	}
	return &ApprovalsReply{Approvals: approvals}, nil
}

func (l *Ledger) balancesByOwner(ctx context.Context, r storage.Reader, q *BalancesByOwnerArgs) (*BalancesReply, error) {
	owner, err := l.validator.Validate(q.Owner)
	if err != nil {
		return nil, err
	}
	balances, err := storage.BalancesByOwner(ctx, r, owner, q.StartAfter, q.Limit)
	if err != nil {
		return nil, err
	}
	return &BalancesReply{Balances: balances}, nil
}

func (l *Ledger) balancesByID(ctx context.Context, r storage.Reader, q *BalancesByIDArgs) (*BalancesReply, error) {
	if err := storage.AssertRegistered(ctx, r, q.ID); err != nil {
		return nil, err
	}
	startAfter, err := l.cursor(q.StartAfter)
	if err != nil {
		return nil, err
	}
	balances, err := storage.BalancesByID(ctx, r, q.ID, startAfter, q.Limit)
	if err != nil {
		return nil, err
	}
	return &BalancesReply{Balances: balances}, nil
}

func (l *Ledger) cursor(raw *string) (*identity.Identity, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := l.validator.Validate(*raw)
	if err != nil {
		return nil, fmt.Errorf("start_after: %w", err)
	}
	return &id, nil
}

func isNil(q Query) bool {
	if q == nil {
		return true
	}
	v := reflect.ValueOf(q)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func optional(id identity.Identity) *string {
	if id.IsEmpty() {
		return nil
	}
	s := id.String()
	return &s
}
