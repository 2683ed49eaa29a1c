package vm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/thesecretlab-dev/multitoken/actions"
	"github.com/thesecretlab-dev/multitoken/consts"
	"github.com/thesecretlab-dev/multitoken/genesis"
	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"
)

const sender = "sender"

var env = actions.Env{Height: 10, Time: 1_000}

type recordingNotifier struct {
	received []*actions.ReceiveNotification
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, n *actions.ReceiveNotification) error {
	r.received = append(r.received, n)
	return r.err
}

func newTestLedger(t *testing.T, options ...Option) *Ledger {
	t.Helper()
	db := memdb.New()
	t.Cleanup(func() { _ = db.Close() })

	l, err := New(db, prometheus.NewRegistry(), options...)
	require.NoError(t, err)
	_, err = l.Initialize(context.Background(), &genesis.Genesis{
		MetadataURI: "https://example.org/{id}.json",
		Name:        "collection",
	}, sender)
	require.NoError(t, err)
	return l
}

func (l *Ledger) mustExecute(t *testing.T, caller string, a actions.Action) *actions.Result {
	t.Helper()
	r, err := l.Execute(context.Background(), env, caller, a)
	require.NoError(t, err)
	return r
}

func (l *Ledger) mustRegister(t *testing.T, a *actions.Register) uint64 {
	t.Helper()
	id, err := l.mustExecute(t, sender, a).Uint("id")
	require.NoError(t, err)
	return id
}

func (l *Ledger) mustQuery(t *testing.T, q Query) any {
	t.Helper()
	reply, err := l.Query(context.Background(), env, q)
	require.NoError(t, err)
	return reply
}

func (l *Ledger) balanceOf(t *testing.T, owner string, id uint64) uint64 {
	t.Helper()
	return l.mustQuery(t, &BalanceArgs{Owner: owner, ID: id}).(*BalanceReply).Balance
}

func (l *Ledger) infoOf(t *testing.T, id uint64) *storage.TokenInfo {
	t.Helper()
	return l.mustQuery(t, &TokenInfoArgs{ID: id}).(*storage.TokenInfo)
}

func u64(v uint64) *uint64 { return &v }

func u32(v uint32) *uint32 { return &v }

func str(s string) *string { return &s }

func TestInitialize(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	cfg := l.mustQuery(t, &ConfigArgs{}).(*ConfigReply)
	require.Equal(&ConfigReply{
		MetadataURI:      "https://example.org/{id}.json",
		Name:             "collection",
		Owner:            str(sender),
		Minter:           str(sender),
		RegisteredTokens: 0,
	}, cfg)

	info, err := l.ContractInfo(context.Background())
	require.NoError(err)
	require.Equal(storage.ContractInfo{Name: consts.Name, Version: consts.Version}, info)

	_, err = l.Initialize(context.Background(), &genesis.Genesis{}, sender)
	require.ErrorIs(err, storage.ErrAlreadyInitialized)
}

func TestBech32IdentitiesRoundTrip(t *testing.T) {
	require := require.New(t)
	const hrp = "ledger"

	account := func(b byte) string {
		var addr codec.Address
		for i := range addr {
			addr[i] = b ^ byte(i)
		}
		id, err := identity.FromAddress(hrp, addr)
		require.NoError(err)
		return id.String()
	}
	owner, holder := account(0x01), account(0x02)

	db := memdb.New()
	defer db.Close()
	l, err := New(db, prometheus.NewRegistry(), WithValidator(identity.New(hrp)))
	require.NoError(err)
	_, err = l.Initialize(context.Background(), &genesis.Genesis{Name: "collection"}, owner)
	require.NoError(err)

	cfg := l.mustQuery(t, &ConfigArgs{}).(*ConfigReply)
	require.Equal(owner, *cfg.Owner)
	require.Equal(owner, *cfg.Minter)

	id, err := l.mustExecute(t, *cfg.Owner, &actions.Register{}).Uint("id")
	require.NoError(err)
	minted := l.mustExecute(t, *cfg.Minter, &actions.Mint{To: holder, ID: id, Amount: 10})
	to, ok := minted.Get("to")
	require.True(ok)
	require.Equal(holder, to)

	byOwner := l.mustQuery(t, &BalancesByOwnerArgs{Owner: to}).(*BalancesReply)
	require.Equal([]storage.BalanceEntry{{Owner: identity.Identity(holder), ID: id, Amount: 10}}, byOwner.Balances)

	byID := l.mustQuery(t, &BalancesByIDArgs{ID: id}).(*BalancesReply)
	require.Len(byID.Balances, 1)
	require.Equal(uint64(10), l.balanceOf(t, byID.Balances[0].Owner.String(), id))

	// upper case input resolves to the same account
	moved := l.mustExecute(t, strings.ToUpper(holder), &actions.TransferFrom{From: holder, To: owner, ID: id, Amount: 4})
	from, _ := moved.Get("from")
	require.Equal(uint64(6), l.balanceOf(t, from, id))
	require.Equal(uint64(4), l.balanceOf(t, owner, id))

	l.mustExecute(t, holder, &actions.ApproveAll{Operator: owner})
	grants := l.mustQuery(t, &ApprovalsByOperatorArgs{Operator: owner}).(*ApprovalsReply)
	require.Len(grants.Approvals, 1)
	l.mustExecute(t, grants.Approvals[0].Operator.String(), &actions.Burn{From: grants.Approvals[0].Owner.String(), ID: id, Amount: 1})
	require.Equal(uint64(5), l.balanceOf(t, holder, id))

	_, err = l.Execute(context.Background(), env, "sender", &actions.Register{})
	require.ErrorIs(err, identity.ErrInvalidIdentity)
}

func TestScenarioMintUncapped(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	id := l.mustRegister(t, &actions.Register{})
	require.Equal(uint64(1), id)
	l.mustExecute(t, sender, &actions.Mint{To: "r", ID: id, Amount: 10})

	require.Equal(uint64(10), l.balanceOf(t, "r", id))
	require.Equal(uint64(10), l.infoOf(t, id).CurrentSupply)
}

func TestScenarioMaxSupply(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	id := l.mustRegister(t, &actions.Register{MaxSupply: u64(20)})
	l.mustExecute(t, sender, &actions.Mint{To: "r", ID: id, Amount: 15})
	require.Equal(uint64(15), l.infoOf(t, id).CurrentSupply)

	_, err := l.Execute(context.Background(), env, sender, &actions.Mint{To: "r", ID: id, Amount: 10})
	require.ErrorIs(err, storage.ErrCannotExceedMaxSupply)
	require.Equal(uint64(15), l.infoOf(t, id).CurrentSupply)
	require.Equal(uint64(15), l.balanceOf(t, "r", id))
}

func TestScenarioOperatorBurn(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	id := l.mustRegister(t, &actions.Register{})
	l.mustExecute(t, sender, &actions.Mint{To: "r", ID: id, Amount: 10})

	burn := &actions.Burn{From: "r", ID: id, Amount: 3}
	_, err := l.Execute(context.Background(), env, sender, burn)
	require.ErrorIs(err, storage.ErrUnauthorized)

	never := storage.Never()
	l.mustExecute(t, "r", &actions.ApproveAll{Operator: sender, Expiration: &never})
	l.mustExecute(t, sender, burn)

	info := l.infoOf(t, id)
	require.Equal(uint64(7), info.CurrentSupply)
	require.Equal(uint64(3), info.Burned)
	require.Equal(uint64(7), l.balanceOf(t, "r", id))
}

func TestScenarioNotTransferable(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	no := false
	id := l.mustRegister(t, &actions.Register{IsTransferrable: &no})
	l.mustExecute(t, sender, &actions.Mint{To: "r", ID: id, Amount: 10})

	_, err := l.Execute(context.Background(), env, "r", &actions.TransferFrom{From: "r", To: "s", ID: id, Amount: 5})
	var nt *storage.NotTransferableError
	require.ErrorAs(err, &nt)
	require.Equal(id, nt.ID)

	require.Equal(uint64(10), l.balanceOf(t, "r", id))
	require.Zero(l.balanceOf(t, "s", id))
}

func TestScenarioDisableMinting(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	id := l.mustRegister(t, &actions.Register{})
	l.mustExecute(t, sender, &actions.Mint{To: "r", ID: id, Amount: 10})
	l.mustExecute(t, sender, &actions.DisableTokenMinting{ID: id})

	for _, amount := range []uint64{1, 5, 1 << 40} {
		_, err := l.Execute(context.Background(), env, sender, &actions.Mint{To: "r", ID: id, Amount: amount})
		require.ErrorIs(err, storage.ErrCannotExceedMaxSupply)
	}
	require.Equal(uint64(10), *l.infoOf(t, id).MaxSupply)
}

func TestRoundTrips(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	id := l.mustRegister(t, &actions.Register{})
	l.mustExecute(t, sender, &actions.Mint{To: "a", ID: id, Amount: 10})

	l.mustExecute(t, sender, &actions.Mint{To: "a", ID: id, Amount: 4})
	l.mustExecute(t, "a", &actions.Burn{From: "a", ID: id, Amount: 4})
	info := l.infoOf(t, id)
	require.Equal(uint64(10), info.CurrentSupply)
	require.Equal(uint64(4), info.Burned)

	l.mustExecute(t, "a", &actions.TransferFrom{From: "a", To: "b", ID: id, Amount: 6})
	l.mustExecute(t, "b", &actions.TransferFrom{From: "b", To: "a", ID: id, Amount: 6})
	require.Equal(uint64(10), l.balanceOf(t, "a", id))
	require.Zero(l.balanceOf(t, "b", id))

	// zero balances are pruned from the listings
	holders := l.mustQuery(t, &BalancesByIDArgs{ID: id}).(*BalancesReply)
	require.Equal([]storage.BalanceEntry{{Owner: "a", ID: id, Amount: 10}}, holders.Balances)
}

func TestApprovalQueries(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	at := storage.AtHeight(env.Height + 5)
	l.mustExecute(t, "a", &actions.ApproveAll{Operator: "op"})
	l.mustExecute(t, "b", &actions.ApproveAll{Operator: "op", Expiration: &at})
	l.mustExecute(t, "a", &actions.ApproveAll{Operator: "other"})

	reply := l.mustQuery(t, &IsApprovedForAllArgs{Owner: "b", Operator: "op"}).(*IsApprovedForAllReply)
	require.True(reply.Approved)
	require.Equal(at, *reply.Expiration)

	later := actions.Env{Height: env.Height + 5}
	r, err := l.Query(context.Background(), later, &IsApprovedForAllArgs{Owner: "b", Operator: "op"})
	require.NoError(err)
	require.False(r.(*IsApprovedForAllReply).Approved)
	require.Equal(at, *r.(*IsApprovedForAllReply).Expiration)

	reply = l.mustQuery(t, &IsApprovedForAllArgs{Owner: "op", Operator: "a"}).(*IsApprovedForAllReply)
	require.Equal(&IsApprovedForAllReply{}, reply)

	byOwner := l.mustQuery(t, &ApprovalsByOwnerArgs{Owner: "a"}).(*ApprovalsReply)
	require.Len(byOwner.Approvals, 2)
	require.Equal(identity.Identity("op"), byOwner.Approvals[0].Operator)
	require.Equal(identity.Identity("other"), byOwner.Approvals[1].Operator)

	byOperator := l.mustQuery(t, &ApprovalsByOperatorArgs{Operator: "op", StartAfter: str("a")}).(*ApprovalsReply)
	require.Equal([]storage.Approval{{Owner: "b", Operator: "op", Expiration: at}}, byOperator.Approvals)

	l.mustExecute(t, "a", &actions.RevokeAll{Operator: "op"})
	byOperator = l.mustQuery(t, &ApprovalsByOperatorArgs{Operator: "op"}).(*ApprovalsReply)
	require.Len(byOperator.Approvals, 1)

	_, err = l.Query(context.Background(), env, &ApprovalsByOwnerArgs{Owner: "a", StartAfter: str(" ")})
	require.ErrorIs(err, identity.ErrEmptyIdentity)
}

func TestExpiredApprovalLeavesNoTrace(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	past := storage.AtTime(env.Time)
	_, err := l.Execute(context.Background(), env, "a", &actions.ApproveAll{Operator: "op", Expiration: &past})
	require.ErrorIs(err, storage.ErrExpired)

	byOwner := l.mustQuery(t, &ApprovalsByOwnerArgs{Owner: "a"}).(*ApprovalsReply)
	require.Empty(byOwner.Approvals)
	byOperator := l.mustQuery(t, &ApprovalsByOperatorArgs{Operator: "op"}).(*ApprovalsReply)
	require.Empty(byOperator.Approvals)
}

func TestNilQuery(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	_, err := l.Query(context.Background(), env, nil)
	require.ErrorIs(err, ErrUnknownQuery)

	var q *BalanceArgs
	_, err = l.Query(context.Background(), env, q)
	require.ErrorIs(err, ErrUnknownQuery)
}

func TestInvalidTokenQueries(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	id := l.mustRegister(t, &actions.Register{})

	for _, q := range []Query{
		&TokenInfoArgs{ID: 0},
		&TokenInfoArgs{ID: id + 1},
		&BalanceArgs{Owner: "a", ID: id + 1},
		&BatchBalanceArgs{Owner: "a", IDs: []uint64{id, id + 1}},
		&BalancesByIDArgs{ID: id + 1},
	} {
		_, err := l.Query(context.Background(), env, q)
		require.ErrorIs(err, storage.ErrInvalidToken, q.QueryName())
	}

	reply := l.mustQuery(t, &BatchBalanceArgs{Owner: "a", IDs: []uint64{id, id}}).(*BatchBalanceReply)
	require.Equal([]uint64{0, 0}, reply.Balances)
}

func TestPagination(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	const (
		tokens  = 12
		holders = 55
	)
	for i := 0; i < tokens; i++ {
		l.mustRegister(t, &actions.Register{})
	}
	for i := 0; i < holders; i++ {
		l.mustExecute(t, sender, &actions.Mint{To: fmt.Sprintf("h%03d", i), ID: 1, Amount: uint64(i + 1)})
	}
	for id := uint64(1); id <= tokens; id++ {
		l.mustExecute(t, sender, &actions.Mint{To: "whale", ID: id, Amount: id})
	}

	page := l.mustQuery(t, &BalancesByIDArgs{ID: 1}).(*BalancesReply)
	require.Len(page.Balances, 10)
	page = l.mustQuery(t, &BalancesByIDArgs{ID: 1, Limit: u32(1000)}).(*BalancesReply)
	require.Len(page.Balances, 50)

	var (
		seen   []string
		cursor *string
	)
	for {
		page := l.mustQuery(t, &BalancesByIDArgs{ID: 1, StartAfter: cursor, Limit: u32(7)}).(*BalancesReply)
		if len(page.Balances) == 0 {
			break
		}
		for _, b := range page.Balances {
			seen = append(seen, b.Owner.String())
		}
		cursor = str(page.Balances[len(page.Balances)-1].Owner.String())
	}
	require.Len(seen, holders+1)
	require.IsIncreasing(seen)

	owned := l.mustQuery(t, &BalancesByOwnerArgs{Owner: "whale", StartAfter: u64(10)}).(*BalancesReply)
	require.Equal([]storage.BalanceEntry{
		{Owner: "whale", ID: 11, Amount: 11},
		{Owner: "whale", ID: 12, Amount: 12},
	}, owned.Balances)

	infos := l.mustQuery(t, &TokensInfoArgs{StartAfter: u64(3), Limit: u32(2)}).(*TokensInfoReply)
	require.Len(infos.Tokens, 2)
	require.Equal(uint64(4), infos.Tokens[0].ID)
	require.Equal(uint64(5), infos.Tokens[1].ID)
}

// supplyInvariants checks every registered token: the balances listed by
// token sum to the current supply and the cap holds.
func supplyInvariants(t *testing.T, l *Ledger) {
	t.Helper()
	n := l.mustQuery(t, &ConfigArgs{}).(*ConfigReply).RegisteredTokens
	for id := uint64(1); id <= n; id++ {
		info := l.infoOf(t, id)
		var (
			sum    uint64
			cursor *string
		)
		for {
			page := l.mustQuery(t, &BalancesByIDArgs{ID: id, StartAfter: cursor, Limit: u32(50)}).(*BalancesReply)
			if len(page.Balances) == 0 {
				break
			}
			for _, b := range page.Balances {
				require.NotZero(t, b.Amount)
				sum += b.Amount
			}
			cursor = str(page.Balances[len(page.Balances)-1].Owner.String())
		}
		require.Equal(t, info.CurrentSupply, sum, "token %d", id)
		if info.MaxSupply != nil {
			require.LessOrEqual(t, info.CurrentSupply+info.Burned, *info.MaxSupply, "token %d", id)
		}
	}
}

// grantInvariants checks that the by-owner and by-operator grant listings
// hold the same grants.
func grantInvariants(t *testing.T, l *Ledger, accounts []string) {
	t.Helper()
	var byOwner, byOperator []storage.Approval
	for _, a := range accounts {
		byOwner = append(byOwner, l.mustQuery(t, &ApprovalsByOwnerArgs{Owner: a, Limit: u32(50)}).(*ApprovalsReply).Approvals...)
		byOperator = append(byOperator, l.mustQuery(t, &ApprovalsByOperatorArgs{Operator: a, Limit: u32(50)}).(*ApprovalsReply).Approvals...)
	}
	require.ElementsMatch(t, byOwner, byOperator)
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	l := newTestLedger(t)
	r := rand.New(rand.NewSource(1)) //nolint:gosec

	l.mustRegister(t, &actions.Register{})
	l.mustRegister(t, &actions.Register{MaxSupply: u64(500)})
	no := false
	l.mustRegister(t, &actions.Register{MaxSupply: u64(300), IsTransferrable: &no})

	accounts := []string{"a", "b", "c", "d", sender}
	pick := func() string { return accounts[r.Intn(len(accounts))] }

	burned := make(map[uint64]uint64)
	now := env
	for i := 0; i < 400; i++ {
		id := uint64(r.Intn(3) + 1)
		amount := uint64(r.Intn(40))
		var a actions.Action
		caller := pick()
		switch r.Intn(8) {
		case 0, 1:
			a, caller = &actions.Mint{To: pick(), ID: id, Amount: amount}, sender
		case 2:
			a = &actions.Burn{From: pick(), ID: id, Amount: amount}
		case 3, 4:
			a = &actions.TransferFrom{From: pick(), To: pick(), ID: id, Amount: amount}
		case 5:
			a = &actions.ApproveAll{Operator: pick()}
		case 6:
			// bounded grants, some of which lapse while the run goes on
			var exp storage.Expiration
			if r.Intn(2) == 0 {
				exp = storage.AtHeight(now.Height + uint64(r.Intn(20)) + 1)
			} else {
				exp = storage.AtTime(now.Time + uint64(r.Intn(20)) + 1)
			}
			a = &actions.ApproveAll{Operator: pick(), Expiration: &exp}
		case 7:
			a = &actions.RevokeAll{Operator: pick()}
		}
		// failures are expected; they must leave no trace
		_, err := l.Execute(context.Background(), now, caller, a)
		if revoke, ok := a.(*actions.RevokeAll); ok && err == nil {
			reply := l.mustQuery(t, &IsApprovedForAllArgs{Owner: caller, Operator: revoke.Operator}).(*IsApprovedForAllReply)
			require.False(t, reply.Approved)
			require.Nil(t, reply.Expiration)
		}
		now.Height++
		now.Time++

		info := l.infoOf(t, id)
		require.GreaterOrEqual(t, info.Burned, burned[id])
		burned[id] = info.Burned
		supplyInvariants(t, l)
		grantInvariants(t, l, accounts)
	}
}

// partialWrite credits a balance and then fails.
type partialWrite struct{}

func (*partialWrite) GetTypeID() uint8 { return 0xfe }

func (*partialWrite) Bytes() []byte { return []byte{0xfe} }

func (*partialWrite) Execute(ctx context.Context, _ identity.Validator, mu state.Mutable, _ actions.Env, actor identity.Identity) (*actions.Result, error) {
	if _, err := storage.AddBalance(ctx, mu, actor, 1, 100); err != nil {
		return nil, err
	}
	return nil, errors.New("boom")
}

func TestExecuteIsAtomic(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	id := l.mustRegister(t, &actions.Register{})

	_, err := l.Execute(context.Background(), env, "a", &partialWrite{})
	require.EqualError(err, "boom")
	require.Zero(l.balanceOf(t, "a", id))

	holders := l.mustQuery(t, &BalancesByIDArgs{ID: id}).(*BalancesReply)
	require.Empty(holders.Balances)
}

func TestExecuteBytes(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	id := l.mustRegister(t, &actions.Register{})

	mint := &actions.Mint{To: "a", ID: id, Amount: 3}
	r, err := l.ExecuteBytes(context.Background(), env, sender, mint.Bytes())
	require.NoError(err)
	require.Equal("mint", r.Action())
	require.Equal(uint64(3), l.balanceOf(t, "a", id))

	_, err = l.ExecuteBytes(context.Background(), env, sender, []byte{0xff})
	require.ErrorIs(err, actions.ErrUnknownAction)
}

func TestNotifications(t *testing.T) {
	require := require.New(t)
	n := &recordingNotifier{}
	l := newTestLedger(t, WithNotifier(n))
	id := l.mustRegister(t, &actions.Register{})

	l.mustExecute(t, sender, &actions.Mint{To: "a", ID: id, Amount: 3})
	require.Empty(n.received)

	l.mustExecute(t, sender, &actions.Mint{To: "a", ID: id, Amount: 3, Msg: []byte("hello")})
	l.mustExecute(t, "a", &actions.TransferFrom{From: "a", To: "b", ID: id, Amount: 1, Msg: []byte{}})
	require.Len(n.received, 2)
	require.Equal(identity.Identity("a"), n.received[0].Recipient)
	require.True(n.received[0].From.IsEmpty())
	require.Equal(identity.Identity("b"), n.received[1].Recipient)
	require.Equal(identity.Identity("a"), n.received[1].From)

	// a failed call notifies nobody
	_, err := l.Execute(context.Background(), env, "a", &actions.TransferFrom{From: "a", To: "b", ID: id, Amount: 100, Msg: []byte("x")})
	require.ErrorIs(err, storage.ErrInsufficientFunds)
	require.Len(n.received, 2)

	// a notifier error does not undo the committed call
	n.err = errors.New("unreachable")
	l.mustExecute(t, "a", &actions.TransferFrom{From: "a", To: "b", ID: id, Amount: 1, Msg: []byte("x")})
	require.Equal(uint64(2), l.balanceOf(t, "b", id))
	require.InDelta(1, testutil.ToFloat64(l.metrics.notifyFailures), 0)
	require.InDelta(2, testutil.ToFloat64(l.metrics.notifications), 0)
}

func TestMetrics(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	id := l.mustRegister(t, &actions.Register{})

	l.mustExecute(t, sender, &actions.Mint{To: "a", ID: id, Amount: 3})
	_, err := l.Execute(context.Background(), env, "a", &actions.Mint{To: "a", ID: id, Amount: 3})
	require.ErrorIs(err, storage.ErrNotMinter)
	_, err = l.Execute(context.Background(), env, "", &actions.Register{})
	require.ErrorIs(err, identity.ErrEmptyIdentity)

	require.InDelta(1, testutil.ToFloat64(l.metrics.calls.WithLabelValues("register", statusOK)), 0)
	require.InDelta(1, testutil.ToFloat64(l.metrics.calls.WithLabelValues("register", statusFailed)), 0)
	require.InDelta(1, testutil.ToFloat64(l.metrics.calls.WithLabelValues("mint", statusOK)), 0)
	require.InDelta(1, testutil.ToFloat64(l.metrics.calls.WithLabelValues("mint", statusFailed)), 0)

	l.mustQuery(t, &ConfigArgs{})
	_, err = l.Query(context.Background(), env, &TokenInfoArgs{ID: 9})
	require.ErrorIs(err, storage.ErrInvalidToken)
	require.InDelta(1, testutil.ToFloat64(l.metrics.queries.WithLabelValues("config", statusOK)), 0)
	require.InDelta(1, testutil.ToFloat64(l.metrics.queries.WithLabelValues("token_info", statusFailed)), 0)
}

func TestDuplicateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(memdb.New(), reg)
	require.NoError(t, err)
	_, err = New(memdb.New(), reg)
	require.Error(t, err)
}
