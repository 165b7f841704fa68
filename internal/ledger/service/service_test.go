package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carecoin/internal/ledger/events"
	"carecoin/internal/ledger/models"
	"carecoin/internal/ledger/store"
	dErrors "carecoin/pkg/domain-errors"
	"carecoin/pkg/requestcontext"
)

const (
	owner = "treasury"
	userA = "user-a"
	userB = "user-b"
)

// recordingPublisher captures emitted events so tests can assert that
// successful operations emit exactly one and rejected ones emit none.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Emit(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type LedgerServiceSuite struct {
	suite.Suite
	store     *store.InMemory
	published *recordingPublisher
	service   *Service
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.published = &recordingPublisher{}
	s.service = NewService(s.store, owner, WithEvents(s.published))
}

// mint seeds a balance through the real mint path so totalMinted stays
// consistent with balances.
func (s *LedgerServiceSuite) mint(ctx context.Context, amount uint64, recipient string) {
	s.T().Helper()
	_, err := s.service.Mint(ctx, owner, amount, recipient, "seed")
	s.Require().NoError(err)
}

// assertConserved checks sum(balances) == totalMinted.
func (s *LedgerServiceSuite) assertConserved(ctx context.Context) {
	s.T().Helper()
	total, err := s.service.TotalMinted(ctx)
	s.Require().NoError(err)
	s.Equal(total, s.store.SumBalances())
}

// =============================================================================
// Mint Tests
// =============================================================================

func (s *LedgerServiceSuite) TestMint() {
	ctx := context.Background()

	s.Run("owner mint credits recipient and records metadata", func() {
		mintID, err := s.service.Mint(ctx, owner, 1000, userA, "community reward batch 1")
		s.NoError(err)
		s.Equal(uint64(1), mintID)

		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(1000), balance)

		total, err := s.service.TotalMinted(ctx)
		s.NoError(err)
		s.Equal(uint64(1000), total)

		record, err := s.service.MintMetadata(ctx, mintID)
		s.NoError(err)
		s.Require().NotNil(record)
		s.Equal(owner, record.Minter)
		s.Equal(uint64(1000), record.Amount)
		s.Equal("community reward batch 1", record.Notes)
		s.assertConserved(ctx)
	})

	s.Run("mint ids are sequential from 1", func() {
		id2, err := s.service.Mint(ctx, owner, 1, userA, "")
		s.NoError(err)
		s.Equal(uint64(2), id2)

		id3, err := s.service.Mint(ctx, owner, 1, userB, "")
		s.NoError(err)
		s.Equal(uint64(3), id3)

		counter, err := s.service.MintCounter(ctx)
		s.NoError(err)
		s.Equal(uint64(3), counter)
	})
}

func (s *LedgerServiceSuite) TestMintRejections() {
	ctx := context.Background()

	s.Run("non-owner is rejected and leaves no trace", func() {
		_, err := s.service.Mint(ctx, userA, 1, userA, "x")
		s.True(dErrors.HasCode(err, dErrors.CodeOwnerOnly))

		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Zero(balance)

		counter, err := s.service.MintCounter(ctx)
		s.NoError(err)
		s.Zero(counter)
		s.Empty(s.published.all())
	})

	s.Run("zero amount is rejected", func() {
		_, err := s.service.Mint(ctx, owner, 0, userA, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	s.Run("paused ledger rejects mint", func() {
		s.Require().NoError(s.service.Pause(ctx, owner))
		_, err := s.service.Mint(ctx, owner, 1, userA, "")
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.service.Unpause(ctx, owner))
	})

	s.Run("oversized notes are rejected before any write", func() {
		long := make([]byte, models.MaxMetadataLen+1)
		for i := range long {
			long[i] = 'n'
		}
		_, err := s.service.Mint(ctx, owner, 1, userA, string(long))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidMetadata))

		counter, err := s.service.MintCounter(ctx)
		s.NoError(err)
		s.Zero(counter)
	})

	s.Run("blacklisted recipient cannot receive a mint", func() {
		s.Require().NoError(s.service.Blacklist(ctx, owner, userB))
		_, err := s.service.Mint(ctx, owner, 1, userB, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBlacklisted))
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userB))
	})

	s.Run("failed mint does not advance the counter", func() {
		before, err := s.service.MintCounter(ctx)
		s.Require().NoError(err)

		_, err = s.service.Mint(ctx, userA, 5, userA, "")
		s.Error(err)

		after, err := s.service.MintCounter(ctx)
		s.NoError(err)
		s.Equal(before, after)
	})
}

func (s *LedgerServiceSuite) TestMintSupplyCeiling() {
	ctx := context.Background()

	s.Run("filling the supply exactly succeeds", func() {
		_, err := s.service.Mint(ctx, owner, models.MaxSupply-1, userA, "")
		s.Require().NoError(err)

		_, err = s.service.Mint(ctx, owner, 1, userB, "")
		s.NoError(err)

		total, err := s.service.TotalMinted(ctx)
		s.NoError(err)
		s.Equal(models.MaxSupply, total)
	})

	s.Run("one token past the ceiling is rejected", func() {
		_, err := s.service.Mint(ctx, owner, 1, userA, "")
		s.True(dErrors.HasCode(err, dErrors.CodeMaxSupplyReached))
		s.assertConserved(ctx)
	})

	s.Run("burning frees headroom for minting again", func() {
		s.Require().NoError(s.service.Burn(ctx, userB, 1))

		_, err := s.service.Mint(ctx, owner, 1, userA, "")
		s.NoError(err)
		s.assertConserved(ctx)
	})
}

// =============================================================================
// Transfer Tests
// =============================================================================

func (s *LedgerServiceSuite) TestTransfer() {
	ctx := context.Background()
	s.mint(ctx, 1000, userA)

	s.Run("moves tokens and conserves supply", func() {
		err := s.service.Transfer(ctx, userA, 400, userA, userB, []byte("thanks"))
		s.NoError(err)

		balanceA, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(600), balanceA)

		balanceB, err := s.service.Balance(ctx, userB)
		s.NoError(err)
		s.Equal(uint64(400), balanceB)
		s.assertConserved(ctx)
	})

	s.Run("self transfer validates and succeeds without moving anything", func() {
		err := s.service.Transfer(ctx, userA, 100, userA, userA, nil)
		s.NoError(err)

		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(600), balance)
	})

	s.Run("memo at the byte bound is accepted", func() {
		memo := make([]byte, models.MaxMemoLen)
		err := s.service.Transfer(ctx, userA, 1, userA, userB, memo)
		s.NoError(err)
	})

	s.Run("memo is opaque to the ledger", func() {
		// The byte bound is a transport concern; the ledger itself never
		// inspects the memo.
		memo := make([]byte, models.MaxMemoLen+1)
		err := s.service.Transfer(ctx, userA, 1, userA, userB, memo)
		s.NoError(err)
	})
}

func (s *LedgerServiceSuite) TestTransferRejections() {
	ctx := context.Background()
	s.mint(ctx, 100, userA)

	s.Run("caller must be the sender", func() {
		err := s.service.Transfer(ctx, userB, 10, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("zero amount", func() {
		err := s.service.Transfer(ctx, userA, 0, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	s.Run("insufficient balance", func() {
		err := s.service.Transfer(ctx, userA, 101, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	s.Run("unknown sender has balance zero", func() {
		err := s.service.Transfer(ctx, "stranger", 1, "stranger", userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	s.Run("blacklisted sender", func() {
		s.Require().NoError(s.service.Blacklist(ctx, owner, userA))
		err := s.service.Transfer(ctx, userA, 10, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBlacklisted))
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userA))
	})

	s.Run("blacklisted recipient", func() {
		s.Require().NoError(s.service.Blacklist(ctx, owner, userB))
		err := s.service.Transfer(ctx, userA, 10, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBlacklisted))
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userB))
	})

	s.Run("paused ledger", func() {
		s.Require().NoError(s.service.Pause(ctx, owner))
		err := s.service.Transfer(ctx, userA, 10, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.service.Unpause(ctx, owner))
	})

	s.Run("rejections never move tokens", func() {
		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(100), balance)
		s.assertConserved(ctx)
	})
}

func (s *LedgerServiceSuite) TestTransferCheckOrder() {
	ctx := context.Background()

	s.Run("paused wins over every other failure", func() {
		// Caller is not the sender, amount is zero, and nobody has funds,
		// but the pause check runs first.
		s.Require().NoError(s.service.Pause(ctx, owner))
		err := s.service.Transfer(ctx, userB, 0, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.service.Unpause(ctx, owner))
	})

	s.Run("self-authorization wins over invalid amount", func() {
		err := s.service.Transfer(ctx, userB, 0, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("invalid amount wins over insufficient balance", func() {
		err := s.service.Transfer(ctx, userA, 0, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	s.Run("insufficient balance wins over sender blacklist", func() {
		s.Require().NoError(s.service.Blacklist(ctx, owner, userA))
		err := s.service.Transfer(ctx, userA, 1, userA, userB, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userA))
	})
}

// =============================================================================
// Burn Tests
// =============================================================================

func (s *LedgerServiceSuite) TestBurn() {
	ctx := context.Background()
	s.mint(ctx, 500, userA)

	s.Run("destroys tokens and shrinks circulating supply", func() {
		err := s.service.Burn(ctx, userA, 200)
		s.NoError(err)

		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(300), balance)

		total, err := s.service.TotalMinted(ctx)
		s.NoError(err)
		s.Equal(uint64(300), total)
		s.assertConserved(ctx)
	})

	s.Run("blacklisted holders may still burn their own tokens", func() {
		s.Require().NoError(s.service.Blacklist(ctx, owner, userA))
		err := s.service.Burn(ctx, userA, 100)
		s.NoError(err)
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userA))
	})

	s.Run("burning the whole balance reads back as zero", func() {
		err := s.service.Burn(ctx, userA, 200)
		s.NoError(err)

		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Zero(balance)
		s.assertConserved(ctx)
	})
}

func (s *LedgerServiceSuite) TestBurnRejections() {
	ctx := context.Background()
	s.mint(ctx, 50, userA)

	// assertUntouched checks a rejected burn destroyed nothing.
	assertUntouched := func() {
		s.T().Helper()
		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(50), balance)

		total, err := s.service.TotalMinted(ctx)
		s.NoError(err)
		s.Equal(uint64(50), total)
		s.assertConserved(ctx)
	}

	s.Run("zero amount", func() {
		err := s.service.Burn(ctx, userA, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
		assertUntouched()
	})

	s.Run("insufficient balance", func() {
		err := s.service.Burn(ctx, userA, 51)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		assertUntouched()
	})

	s.Run("paused ledger", func() {
		s.Require().NoError(s.service.Pause(ctx, owner))
		err := s.service.Burn(ctx, userA, 1)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		s.Require().NoError(s.service.Unpause(ctx, owner))
		assertUntouched()
	})
}

// =============================================================================
// Pause Tests
// =============================================================================

func (s *LedgerServiceSuite) TestPause() {
	ctx := context.Background()

	s.Run("only the owner may pause", func() {
		err := s.service.Pause(ctx, userA)
		s.True(dErrors.HasCode(err, dErrors.CodeOwnerOnly))
	})

	s.Run("pause and unpause round trip", func() {
		s.Require().NoError(s.service.Pause(ctx, owner))
		paused, err := s.service.IsPaused(ctx)
		s.NoError(err)
		s.True(paused)

		s.Require().NoError(s.service.Unpause(ctx, owner))
		paused, err = s.service.IsPaused(ctx)
		s.NoError(err)
		s.False(paused)
	})

	s.Run("redundant pause and unpause are no-op successes", func() {
		s.Require().NoError(s.service.Pause(ctx, owner))
		s.NoError(s.service.Pause(ctx, owner))

		s.Require().NoError(s.service.Unpause(ctx, owner))
		s.NoError(s.service.Unpause(ctx, owner))
	})

	s.Run("only the owner may unpause", func() {
		err := s.service.Unpause(ctx, userA)
		s.True(dErrors.HasCode(err, dErrors.CodeOwnerOnly))
	})
}

// =============================================================================
// Blacklist Tests
// =============================================================================

func (s *LedgerServiceSuite) TestBlacklist() {
	ctx := context.Background()

	s.Run("only the owner may manage the blacklist", func() {
		err := s.service.Blacklist(ctx, userA, userB)
		s.True(dErrors.HasCode(err, dErrors.CodeOwnerOnly))

		err = s.service.Unblacklist(ctx, userA, userB)
		s.True(dErrors.HasCode(err, dErrors.CodeOwnerOnly))
	})

	s.Run("membership round trip", func() {
		blacklisted, err := s.service.IsBlacklisted(ctx, userB)
		s.NoError(err)
		s.False(blacklisted)

		s.Require().NoError(s.service.Blacklist(ctx, owner, userB))
		blacklisted, err = s.service.IsBlacklisted(ctx, userB)
		s.NoError(err)
		s.True(blacklisted)

		s.Require().NoError(s.service.Unblacklist(ctx, owner, userB))
		blacklisted, err = s.service.IsBlacklisted(ctx, userB)
		s.NoError(err)
		s.False(blacklisted)
	})

	s.Run("double add is rejected", func() {
		s.Require().NoError(s.service.Blacklist(ctx, owner, userB))
		err := s.service.Blacklist(ctx, owner, userB)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyBlacklisted))
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userB))
	})

	s.Run("removing a non-member is rejected", func() {
		err := s.service.Unblacklist(ctx, owner, "never-listed")
		s.True(dErrors.HasCode(err, dErrors.CodeNotBlacklisted))
	})

	s.Run("blacklisting does not touch the held balance", func() {
		s.mint(ctx, 75, userA)
		s.Require().NoError(s.service.Blacklist(ctx, owner, userA))

		balance, err := s.service.Balance(ctx, userA)
		s.NoError(err)
		s.Equal(uint64(75), balance)
		s.Require().NoError(s.service.Unblacklist(ctx, owner, userA))
	})
}

// =============================================================================
// Token URI Tests
// =============================================================================

func (s *LedgerServiceSuite) TestSetTokenURI() {
	ctx := context.Background()

	s.Run("owner sets and clears the pointer", func() {
		uri, err := s.service.TokenURI(ctx)
		s.NoError(err)
		s.Nil(uri)

		value := "https://carecoin.example/token.json"
		s.Require().NoError(s.service.SetTokenURI(ctx, owner, &value))

		uri, err = s.service.TokenURI(ctx)
		s.NoError(err)
		s.Require().NotNil(uri)
		s.Equal(value, *uri)

		s.Require().NoError(s.service.SetTokenURI(ctx, owner, nil))
		uri, err = s.service.TokenURI(ctx)
		s.NoError(err)
		s.Nil(uri)
	})

	s.Run("non-owner is rejected", func() {
		value := "https://rogue.example"
		err := s.service.SetTokenURI(ctx, userA, &value)
		s.True(dErrors.HasCode(err, dErrors.CodeOwnerOnly))
	})

	s.Run("oversized URI is rejected", func() {
		long := make([]byte, models.MaxMetadataLen+1)
		for i := range long {
			long[i] = 'u'
		}
		value := string(long)
		err := s.service.SetTokenURI(ctx, owner, &value)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// =============================================================================
// Query Tests
// =============================================================================

func (s *LedgerServiceSuite) TestQueries() {
	ctx := context.Background()

	s.Run("token constants", func() {
		s.Equal("CareCoin", s.service.Name())
		s.Equal("CARE", s.service.Symbol())
		s.Equal(8, s.service.Decimals())
		s.Equal(models.MaxSupply, s.service.TotalSupply())
	})

	s.Run("total supply is the ceiling, not circulation", func() {
		s.mint(ctx, 10, userA)
		s.Equal(models.MaxSupply, s.service.TotalSupply())

		total, err := s.service.TotalMinted(ctx)
		s.NoError(err)
		s.Equal(uint64(10), total)
	})

	s.Run("unknown account reads as zero", func() {
		balance, err := s.service.Balance(ctx, "nobody")
		s.NoError(err)
		s.Zero(balance)
	})

	s.Run("unknown mint id reads as nil", func() {
		record, err := s.service.MintMetadata(ctx, 9999)
		s.NoError(err)
		s.Nil(record)
	})
}

// =============================================================================
// Event Emission Tests
// =============================================================================

func (s *LedgerServiceSuite) TestEvents() {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	s.Run("each successful operation emits one typed event", func() {
		mintID, err := s.service.Mint(ctx, owner, 100, userA, "")
		s.Require().NoError(err)
		s.Require().NoError(s.service.Transfer(ctx, userA, 40, userA, userB, []byte("memo")))
		s.Require().NoError(s.service.Burn(ctx, userB, 10))

		emitted := s.published.all()
		s.Require().Len(emitted, 3)

		s.Equal(events.TypeMint, emitted[0].Type)
		s.Equal(owner, emitted[0].Actor)
		s.Equal(mintID, emitted[0].MintID)

		s.Equal(events.TypeTransfer, emitted[1].Type)
		s.Equal(userA, emitted[1].Sender)
		s.Equal(userB, emitted[1].Recipient)
		s.Equal([]byte("memo"), emitted[1].Memo)

		s.Equal(events.TypeBurn, emitted[2].Type)
		s.Equal(uint64(10), emitted[2].Amount)
	})

	s.Run("rejected operations emit nothing", func() {
		before := len(s.published.all())
		s.Error(s.service.Transfer(ctx, userB, 9999, userB, userA, nil))
		_, err := s.service.Mint(ctx, userA, 1, userA, "")
		s.Error(err)
		s.Len(s.published.all(), before)
	})
}

// =============================================================================
// Conservation Invariant
// =============================================================================

func (s *LedgerServiceSuite) TestConservationAcrossMixedOperations() {
	ctx := context.Background()

	s.mint(ctx, 1000, userA)
	s.mint(ctx, 500, userB)
	s.Require().NoError(s.service.Transfer(ctx, userA, 250, userA, userB, nil))
	s.Require().NoError(s.service.Burn(ctx, userB, 300))
	s.Require().NoError(s.service.Transfer(ctx, userB, 450, userB, "user-c", nil))
	s.mint(ctx, 42, "user-c")

	total, err := s.service.TotalMinted(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1242), total)
	s.Equal(total, s.store.SumBalances())
	s.LessOrEqual(total, models.MaxSupply)
}
