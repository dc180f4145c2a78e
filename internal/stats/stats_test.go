package stats_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/stats"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time                  { return c.now }
func (c *fakeClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }
func (c *fakeClock) Sleep(time.Duration)             {}
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}

type fakeStore struct {
	store.Store

	segments []schema.Segment
	prices   []schema.WorldPrice
	statuses map[uint64]domain.PopulationStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{statuses: map[uint64]domain.PopulationStatus{}}
}

func (f *fakeStore) GetOwnedSegments(context.Context) ([]schema.Segment, error) {
	return f.segments, nil
}

func (f *fakeStore) UpdateUserPopulationStatus(_ context.Context, userID uint64, status domain.PopulationStatus) error {
	f.statuses[userID] = status
	return nil
}

func (f *fakeStore) GetWorldPricesSince(_ context.Context, since time.Time) ([]schema.WorldPrice, error) {
	var out []schema.WorldPrice
	for _, price := range f.prices {
		if price.CreatedAt.After(since) {
			out = append(out, price)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLatestWorldPrice(_ context.Context) (*schema.WorldPrice, error) {
	if len(f.prices) == 0 {
		return nil, nil
	}
	latest := f.prices[len(f.prices)-1]
	return &latest, nil
}

// seedOwner adds n owned segments for one wallet, coordinates A<start>..
func (f *fakeStore) seedOwner(userID uint64, wallet string, coordinates []string) {
	owner := &schema.User{ID: userID, WalletAddress: wallet}
	for i, coordinate := range coordinates {
		ownerID := userID
		f.segments = append(f.segments, schema.Segment{
			ID:         int64(userID)*1000 + int64(i),
			Coordinate: coordinate,
			OwnerID:    &ownerID,
			Owner:      owner,
		})
	}
}

func coordinateRun(letter string, from, to int) []string {
	var out []string
	for x := from; x <= to; x++ {
		out = append(out, fmt.Sprintf("%s%d", letter, x))
	}
	return out
}

func newService(t *testing.T, st *fakeStore, now time.Time) *stats.Service {
	t.Helper()
	countries, err := stats.NewDefaultCountryIndex()
	require.NoError(t, err)
	return stats.NewService(st, countries, &fakeClock{now: now})
}

func TestCountryIndex(t *testing.T) {
	countries, err := stats.NewCountryIndex([]stats.CountryBounds{
		{Name: "Tiny", TopLeft: "A1", BottomRight: "B2"},
	})
	require.NoError(t, err)

	owned := map[string]struct{}{"A1": {}, "A2": {}, "B1": {}, "B2": {}}
	assert.Equal(t, "Tiny", countries.RuledCountry(owned))

	delete(owned, "B2")
	assert.Empty(t, countries.RuledCountry(owned))

	// Extra coordinates outside the country do not break rulership
	owned["B2"] = struct{}{}
	owned["Z99"] = struct{}{}
	assert.Equal(t, "Tiny", countries.RuledCountry(owned))
}

func TestCountryIndexInvalidBounds(t *testing.T) {
	_, err := stats.NewCountryIndex([]stats.CountryBounds{
		{Name: "Broken", TopLeft: "B2", BottomRight: "A1"},
	})
	assert.Error(t, err)

	_, err = stats.NewCountryIndex([]stats.CountryBounds{
		{Name: "Malformed", TopLeft: "11", BottomRight: "A1"},
	})
	assert.Error(t, err)
}

func TestPopulation(t *testing.T) {
	st := newFakeStore()

	var imperialist []string
	for _, letter := range []string{"V", "W", "X"} {
		imperialist = append(imperialist, coordinateRun(letter, 1, 40)...)
	}
	st.seedOwner(1, "0ximperialist", imperialist)
	st.seedOwner(2, "0xconquerer", coordinateRun("U", 1, 35))
	st.seedOwner(3, "0xlord", coordinateRun("U", 41, 52))
	st.seedOwner(4, "0xsettler", coordinateRun("U", 61, 66))
	st.seedOwner(5, "0xlandowner", coordinateRun("U", 71, 72))

	// The whole of Avalon (A1..E10) makes an emperor
	var avalon []string
	for _, letter := range []string{"A", "B", "C", "D", "E"} {
		avalon = append(avalon, coordinateRun(letter, 1, 10)...)
	}
	st.seedOwner(6, "0xemperor", avalon)

	svc := newService(t, st, time.Now())

	entries, err := svc.Population(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 6)

	byWallet := map[string]stats.PopulationEntry{}
	for _, entry := range entries {
		byWallet[entry.WalletAddress] = entry
	}
	assert.Equal(t, domain.PopulationImperialist, byWallet["0ximperialist"].Status)
	assert.Equal(t, domain.PopulationConquerer, byWallet["0xconquerer"].Status)
	assert.Equal(t, domain.PopulationLord, byWallet["0xlord"].Status)
	assert.Equal(t, domain.PopulationSettler, byWallet["0xsettler"].Status)
	assert.Equal(t, domain.PopulationLandowner, byWallet["0xlandowner"].Status)
	assert.Equal(t, domain.PopulationEmperor, byWallet["0xemperor"].Status)
	assert.Equal(t, "Avalon", byWallet["0xemperor"].Country)

	// Sorted by holdings, largest first
	assert.Equal(t, "0ximperialist", entries[0].WalletAddress)
	assert.Equal(t, "0xlandowner", entries[len(entries)-1].WalletAddress)
}

func TestRecomputePopulation(t *testing.T) {
	st := newFakeStore()
	st.seedOwner(1, "0xaaaa", coordinateRun("U", 1, 12))
	st.seedOwner(2, "0xbbbb", coordinateRun("V", 1, 2))

	svc := newService(t, st, time.Now())

	require.NoError(t, svc.RecomputePopulation(context.Background()))

	assert.Equal(t, domain.PopulationLord, st.statuses[1])
	assert.Equal(t, domain.PopulationLandowner, st.statuses[2])
}

func TestTopHolders(t *testing.T) {
	st := newFakeStore()
	st.seedOwner(1, "0xbig", coordinateRun("U", 1, 9))
	st.seedOwner(2, "0xsmall", coordinateRun("V", 1, 2))
	st.seedOwner(3, "0xmid", coordinateRun("W", 1, 5))

	svc := newService(t, st, time.Now())

	entries, err := svc.TopHolders(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, stats.HolderEntry{WalletAddress: "0xbig", Segments: 9}, entries[0])
	assert.Equal(t, stats.HolderEntry{WalletAddress: "0xmid", Segments: 5}, entries[1])
}

func TestPriceChanges(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	st := newFakeStore()
	st.prices = []schema.WorldPrice{
		{FloorPrice: 2.0, Currency: "ETH", CreatedAt: now.Add(-7 * 24 * time.Hour)},
		{FloorPrice: 1.6, Currency: "ETH", CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{FloorPrice: 1.5, Currency: "ETH", CreatedAt: now.Add(-25 * time.Hour)},
		{FloorPrice: 1.8, Currency: "ETH", CreatedAt: now.Add(-time.Hour)},
	}

	svc := newService(t, st, now)

	changes, err := svc.PriceChanges(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.8, changes.FloorPrice)
	assert.Equal(t, "ETH", changes.Currency)
	assert.InDelta(t, 20.0, changes.DailyChangePct, 0.001)
	assert.InDelta(t, -10.0, changes.WeeklyChangePct, 0.001)
}

func TestPriceChanges_StaleHistoryKeepsCurrentPrice(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	st := newFakeStore()
	st.prices = []schema.WorldPrice{
		{FloorPrice: 2.2, Currency: "ETH", CreatedAt: now.Add(-10 * 24 * time.Hour)},
	}

	svc := newService(t, st, now)

	changes, err := svc.PriceChanges(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.2, changes.FloorPrice)
	assert.Zero(t, changes.DailyChangePct)
	assert.Zero(t, changes.WeeklyChangePct)
}

func TestPriceChanges_NoHistory(t *testing.T) {
	svc := newService(t, newFakeStore(), time.Now())

	changes, err := svc.PriceChanges(context.Background())
	require.NoError(t, err)

	assert.Zero(t, changes.FloorPrice)
	assert.Zero(t, changes.DailyChangePct)
	assert.Zero(t, changes.WeeklyChangePct)
}
