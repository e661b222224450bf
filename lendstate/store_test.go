package lendstate

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"microlend/lending"
	"microlend/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemDB())
}

func TestStoreMissingRecordsAreNil(t *testing.T) {
	store := newTestStore(t)

	platform, err := store.GetPlatform()
	require.NoError(t, err)
	require.Nil(t, platform)

	pool, err := store.GetPool("missing")
	require.NoError(t, err)
	require.Nil(t, pool)

	position, err := store.GetPosition("pool", "lender")
	require.NoError(t, err)
	require.Nil(t, position)

	loan, err := store.GetLoan("missing")
	require.NoError(t, err)
	require.Nil(t, loan)

	profile, err := store.GetProfile("missing")
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestStoreRoundTripsRecords(t *testing.T) {
	store := newTestStore(t)

	platform := &lending.PlatformAccount{
		FeeBps:        250,
		MinLoanAmount: big.NewInt(1_000),
		MaxLoanAmount: big.NewInt(1_000_000),
		TotalVolume:   big.NewInt(0),
		Active:        true,
		CreatedAt:     1_700_000_000,
	}
	require.NoError(t, store.PutPlatform(platform))
	gotPlatform, err := store.GetPlatform()
	require.NoError(t, err)
	require.Equal(t, platform, gotPlatform)

	pool := &lending.Pool{
		ID:                       "pool-1",
		Name:                     "community pool",
		BaseRateBps:              1_000,
		MaxLoanDuration:          365 * 86_400,
		TotalDeposited:           big.NewInt(500_000),
		TotalBorrowed:            big.NewInt(100_000),
		AvailableLiquidity:       big.NewInt(400_000),
		TotalShares:              big.NewInt(500_000),
		InterestPerShare:         big.NewInt(2_464_000),
		TotalInterestEarned:      big.NewInt(1_232),
		TotalInterestDistributed: big.NewInt(0),
		EscrowedInterest:         big.NewInt(0),
		ActiveLoans:              1,
		Active:                   true,
		CreatedAt:                1_700_000_000,
	}
	require.NoError(t, store.PutPool(pool))
	gotPool, err := store.GetPool("pool-1")
	require.NoError(t, err)
	require.Equal(t, pool, gotPool)

	position := &lending.LenderPosition{
		Lender:          "alice",
		PoolID:          "pool-1",
		Shares:          big.NewInt(500_000),
		AmountDeposited: big.NewInt(500_000),
		InterestDebt:    big.NewInt(0),
		InterestClaimed: big.NewInt(0),
		InterestEarned:  big.NewInt(0),
		DepositedAt:     1_700_000_000,
	}
	require.NoError(t, store.PutPosition(position))
	gotPosition, err := store.GetPosition("pool-1", "alice")
	require.NoError(t, err)
	require.Equal(t, position, gotPosition)

	loan := &lending.Loan{
		ID:              "loan-1",
		Borrower:        "bob",
		PoolID:          "pool-1",
		Amount:          big.NewInt(100_000),
		RateBps:         1_500,
		DurationDays:    30,
		AmountRepaid:    big.NewInt(0),
		InterestAccrued: big.NewInt(0),
		InterestPaid:    big.NewInt(0),
		LateFeesPaid:    big.NewInt(0),
		GracePeriodDays: 7,
		LateFeeRateBps:  500,
		CollateralType:  lending.CollateralSocial,
		CollateralValue: big.NewInt(0),
		Status:          lending.LoanStatusRequested,
	}
	require.NoError(t, store.PutLoan(loan))
	gotLoan, err := store.GetLoan("loan-1")
	require.NoError(t, err)
	require.Equal(t, loan, gotLoan)

	profile := &lending.BorrowerProfile{
		Address:       "bob",
		CreditScore:   300,
		TotalBorrowed: big.NewInt(0),
		TotalRepaid:   big.NewInt(0),
		CreatedAt:     1_700_000_000,
		UpdatedAt:     1_700_000_000,
	}
	require.NoError(t, store.PutProfile(profile))
	gotProfile, err := store.GetProfile("bob")
	require.NoError(t, err)
	require.Equal(t, profile, gotProfile)
}

func TestStoreMutationsNeedExplicitPut(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutPool(&lending.Pool{ID: "pool-1", TotalDeposited: big.NewInt(100)}))

	loaded, err := store.GetPool("pool-1")
	require.NoError(t, err)
	loaded.TotalDeposited.SetInt64(999)

	reread, err := store.GetPool("pool-1")
	require.NoError(t, err)
	require.Zero(t, reread.TotalDeposited.Cmp(big.NewInt(100)))
}

func TestStoreAppendsAttestationLog(t *testing.T) {
	store := newTestStore(t)

	list, err := store.Attestations("bob")
	require.NoError(t, err)
	require.Empty(t, list)

	first := &lending.Attestation{Subject: "bob", Attester: "carol", Kind: lending.AttestationEmployer, Score: 800, CreatedAt: 1}
	second := &lending.Attestation{Subject: "bob", Attester: "dave", Kind: lending.AttestationCommunity, Score: 600, CreatedAt: 2}
	require.NoError(t, store.AppendAttestation(first))
	require.NoError(t, store.AppendAttestation(second))

	list, err = store.Attestations("bob")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first, list[0])
	require.Equal(t, second, list[1])

	other, err := store.Attestations("carol")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestStoreAppendsTransactionLog(t *testing.T) {
	store := newTestStore(t)

	rec := &lending.TransactionRecord{
		Subject:          "bob",
		Kind:             lending.TransactionMobileMoney,
		Amount:           big.NewInt(5_000),
		Counterparty:     "m-pesa",
		FrequencyScore:   700,
		ConsistencyScore: 650,
		Verified:         true,
		Timestamp:        1_700_000_000,
	}
	require.NoError(t, store.AppendTransaction(rec))

	list, err := store.Transactions("bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, rec, list[0])
}
