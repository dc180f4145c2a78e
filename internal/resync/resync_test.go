package resync_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/providers/subgraph"
	"github.com/world-in-pieces/wip-backend/internal/resync"
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

type fakeLandClient struct {
	owners       []subgraph.OwnerSegments
	userSegments map[string][]subgraph.Segment
	err          error
}

func (f *fakeLandClient) GetAllSegmentOwners(context.Context) ([]subgraph.OwnerSegments, error) {
	return f.owners, f.err
}

func (f *fakeLandClient) GetUserSegments(_ context.Context, wallet string) ([]subgraph.Segment, error) {
	return f.userSegments[wallet], f.err
}

func (f *fakeLandClient) GetSegmentOwner(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

type fakeCitizenClient struct {
	owners       []subgraph.OwnerCitizens
	userCitizens map[string][]subgraph.Citizen
	err          error
}

func (f *fakeCitizenClient) GetAllCitizenOwners(context.Context) ([]subgraph.OwnerCitizens, error) {
	return f.owners, f.err
}

func (f *fakeCitizenClient) GetUserCitizens(_ context.Context, wallet string) ([]subgraph.Citizen, error) {
	return f.userCitizens[wallet], f.err
}

func (f *fakeCitizenClient) GetCaveHolders(context.Context, string) ([]subgraph.OwnerCitizens, error) {
	return nil, errors.New("not implemented")
}

// fakeStore records calls; unimplemented Store methods panic via the embedded
// nil interface
type fakeStore struct {
	store.Store

	mu sync.Mutex

	users     map[string]*schema.User
	civUsers  map[uint64]*schema.CivilizationUser
	nextID    uint64
	owners    map[int64]uint64
	caves     map[uint64]*schema.CivilizationCave
	citizens  map[string]uint64 // "caveID/tokenID" -> civUserID
	runs      []*schema.ResyncRun
	nullified int
	events    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*schema.User{},
		civUsers: map[uint64]*schema.CivilizationUser{},
		owners:   map[int64]uint64{},
		caves:    map[uint64]*schema.CivilizationCave{},
		citizens: map[string]uint64{},
	}
}

func (f *fakeStore) record(event string) {
	f.events = append(f.events, event)
}

func (f *fakeStore) GetOrCreateUserByWallet(_ context.Context, wallet string) (*schema.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[wallet]; ok {
		return u, nil
	}
	f.nextID++
	u := &schema.User{ID: f.nextID, WalletAddress: wallet}
	f.users[wallet] = u
	return u, nil
}

func (f *fakeStore) GetCivilizationUserByUserID(_ context.Context, userID uint64) (*schema.CivilizationUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.civUsers[userID], nil
}

func (f *fakeStore) CreateCivilizationUser(_ context.Context, civUser *schema.CivilizationUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	civUser.ID = f.nextID
	f.civUsers[civUser.UserID] = civUser
	return nil
}

func (f *fakeStore) UpdateCivilizationUserRole(_ context.Context, civUserID uint64, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cu := range f.civUsers {
		if cu.ID == civUserID {
			cu.Role = role
		}
	}
	return nil
}

func (f *fakeStore) NullifySegmentOwners(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners = map[int64]uint64{}
	f.nullified++
	f.record("nullify")
	return nil
}

func (f *fakeStore) NullifySegmentOwnersByUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, owner := range f.owners {
		if owner == userID {
			delete(f.owners, id)
		}
	}
	return nil
}

func (f *fakeStore) UpsertSegment(context.Context, int64, string) error {
	return nil
}

func (f *fakeStore) SetSegmentOwner(_ context.Context, segmentID int64, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[segmentID] = userID
	f.record("repopulate")
	return nil
}

func (f *fakeStore) NullifyCaveCitizens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.citizens = map[string]uint64{}
	f.record("nullify")
	return nil
}

func (f *fakeStore) NullifyCaveCitizensByUser(_ context.Context, civUserID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, id := range f.citizens {
		if id == civUserID {
			delete(f.citizens, key)
		}
	}
	return nil
}

func (f *fakeStore) GetCaveByID(_ context.Context, caveID uint64) (*schema.CivilizationCave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caves[caveID], nil
}

func (f *fakeStore) AssignCaveCitizen(_ context.Context, caveID uint64, tokenID string, civUserID uint64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.citizens[schemaKey(caveID, tokenID)] = civUserID
	f.record("repopulate")
	return nil
}

func schemaKey(caveID uint64, tokenID string) string {
	return fmt.Sprintf("%d/%s", caveID, tokenID)
}

func (f *fakeStore) CreateResyncRun(_ context.Context, kind string) (*schema.ResyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	run := &schema.ResyncRun{ID: f.nextID, Kind: kind, Phase: schema.ResyncPhaseNullifying}
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeStore) SetResyncRunPhase(_ context.Context, runID uint64, phase schema.ResyncPhase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.ID == runID {
			run.Phase = phase
		}
	}
	return nil
}

func (f *fakeStore) FinishResyncRun(_ context.Context, runID uint64, phase schema.ResyncPhase, runErr *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.ID == runID {
			run.Phase = phase
			run.Error = runErr
		}
	}
	return nil
}

func TestResyncOwnership(t *testing.T) {
	st := newFakeStore()
	land := &fakeLandClient{
		owners: []subgraph.OwnerSegments{
			{WalletAddress: "0xaaaa", Segments: []subgraph.Segment{{ID: "1", Coordinate: "A1"}, {ID: "2", Coordinate: "A2"}}},
			{WalletAddress: "0xbbbb", Segments: []subgraph.Segment{{ID: "3", Coordinate: "B1"}}},
		},
	}
	svc := resync.NewService(st, land, &fakeCitizenClient{}, adapter.NewClock(), 4)

	err := svc.ResyncOwnership(context.Background())

	require.NoError(t, err)
	assert.Len(t, st.owners, 3)
	assert.Equal(t, st.owners[1], st.owners[2])
	assert.NotEqual(t, st.owners[1], st.owners[3])

	// Nullify strictly precedes every repopulate write
	require.NotEmpty(t, st.events)
	assert.Equal(t, "nullify", st.events[0])
	for _, event := range st.events[1:] {
		assert.Equal(t, "repopulate", event)
	}

	// The run reaches the done phase
	require.Len(t, st.runs, 1)
	assert.Equal(t, resync.KindOwnership, st.runs[0].Kind)
	assert.Equal(t, schema.ResyncPhaseDone, st.runs[0].Phase)
	assert.Nil(t, st.runs[0].Error)
}

func TestResyncOwnership_Idempotent(t *testing.T) {
	st := newFakeStore()
	land := &fakeLandClient{
		owners: []subgraph.OwnerSegments{
			{WalletAddress: "0xaaaa", Segments: []subgraph.Segment{{ID: "1", Coordinate: "A1"}}},
		},
	}
	svc := resync.NewService(st, land, &fakeCitizenClient{}, adapter.NewClock(), 2)

	require.NoError(t, svc.ResyncOwnership(context.Background()))
	first := map[int64]uint64{}
	for k, v := range st.owners {
		first[k] = v
	}

	require.NoError(t, svc.ResyncOwnership(context.Background()))

	assert.Equal(t, first, st.owners)
	assert.Equal(t, 2, st.nullified)
}

func TestResyncOwnership_SnapshotFailureKeepsState(t *testing.T) {
	st := newFakeStore()
	st.owners[1] = 42
	land := &fakeLandClient{err: errors.New("subgraph down")}
	svc := resync.NewService(st, land, &fakeCitizenClient{}, adapter.NewClock(), 2)

	err := svc.ResyncOwnership(context.Background())

	require.Error(t, err)
	// Snapshot is fetched before nullification, so a fetch failure leaves
	// local state untouched
	assert.Equal(t, uint64(42), st.owners[1])
	require.Len(t, st.runs, 1)
	assert.Equal(t, schema.ResyncPhaseFailed, st.runs[0].Phase)
	require.NotNil(t, st.runs[0].Error)
	assert.Contains(t, *st.runs[0].Error, "subgraph down")
}

type blockingLandClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingLandClient) GetAllSegmentOwners(context.Context) ([]subgraph.OwnerSegments, error) {
	close(b.started)
	<-b.release
	return nil, nil
}

func (b *blockingLandClient) GetUserSegments(context.Context, string) ([]subgraph.Segment, error) {
	return nil, nil
}

func (b *blockingLandClient) GetSegmentOwner(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

func TestResyncOwnership_RejectsConcurrentRun(t *testing.T) {
	st := newFakeStore()
	land := &blockingLandClient{started: make(chan struct{}), release: make(chan struct{})}
	svc := resync.NewService(st, land, &fakeCitizenClient{}, adapter.NewClock(), 2)

	done := make(chan error, 1)
	go func() {
		done <- svc.ResyncOwnership(context.Background())
	}()

	<-land.started
	err := svc.ResyncOwnership(context.Background())
	assert.ErrorIs(t, err, domain.ErrResyncRunning)

	close(land.release)
	require.NoError(t, <-done)

	// Only the first call opened a run
	assert.Len(t, st.runs, 1)
}

func TestResyncCitizenship(t *testing.T) {
	st := newFakeStore()
	st.caves[5] = &schema.CivilizationCave{ID: 5, Position: 1}
	citizen := &fakeCitizenClient{
		owners: []subgraph.OwnerCitizens{
			{WalletAddress: "0xcccc", Citizens: []subgraph.Citizen{
				{TokenID: "100", CaveID: "5"},
				{TokenID: "101", CaveID: "9999"}, // cave not built locally, skipped
			}},
		},
	}
	svc := resync.NewService(st, &fakeLandClient{}, citizen, adapter.NewClock(), 2)

	err := svc.ResyncCitizenship(context.Background())

	require.NoError(t, err)
	assert.Len(t, st.citizens, 1)

	// The holder got a game user with the citizen role
	user := st.users["0xcccc"]
	require.NotNil(t, user)
	civUser := st.civUsers[user.ID]
	require.NotNil(t, civUser)
	assert.Equal(t, domain.RoleCitizen, civUser.Role)
	assert.NotEmpty(t, civUser.Color)
}

func TestDetermineRole(t *testing.T) {
	land := &fakeLandClient{userSegments: map[string][]subgraph.Segment{
		"0xowner": {{ID: "1", Coordinate: "A1"}},
		"0xboth":  {{ID: "2", Coordinate: "A2"}},
	}}
	citizen := &fakeCitizenClient{userCitizens: map[string][]subgraph.Citizen{
		"0xcitizen": {{TokenID: "100", CaveID: "5"}},
		"0xboth":    {{TokenID: "101", CaveID: "5"}},
	}}
	svc := resync.NewService(newFakeStore(), land, citizen, adapter.NewClock(), 2)
	ctx := context.Background()

	role, err := svc.DetermineRole(ctx, "0xOWNER")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	role, err = svc.DetermineRole(ctx, "0xcitizen")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCitizen, role)

	_, err = svc.DetermineRole(ctx, "0xboth")
	assert.ErrorIs(t, err, domain.ErrBothTokensOwned)

	_, err = svc.DetermineRole(ctx, "0xnothing")
	assert.ErrorIs(t, err, domain.ErrNotAllowed)
}

func TestSyncUser_BothTokensNeverPartiallyAssigns(t *testing.T) {
	st := newFakeStore()
	land := &fakeLandClient{userSegments: map[string][]subgraph.Segment{
		"0xboth": {{ID: "1", Coordinate: "A1"}},
	}}
	citizen := &fakeCitizenClient{userCitizens: map[string][]subgraph.Citizen{
		"0xboth": {{TokenID: "100", CaveID: "5"}},
	}}
	svc := resync.NewService(st, land, citizen, adapter.NewClock(), 2)

	err := svc.SyncUser(context.Background(), "0xBOTH")

	assert.ErrorIs(t, err, domain.ErrBothTokensOwned)
	assert.Empty(t, st.users)
	assert.Empty(t, st.civUsers)
	assert.Empty(t, st.owners)
}

func TestSyncUser_OwnerRoleFlipClearsCitizenRows(t *testing.T) {
	st := newFakeStore()
	land := &fakeLandClient{userSegments: map[string][]subgraph.Segment{
		"0xaaaa": {{ID: "1", Coordinate: "A1"}},
	}}
	citizen := &fakeCitizenClient{userCitizens: map[string][]subgraph.Citizen{}}
	svc := resync.NewService(st, land, citizen, adapter.NewClock(), 2)

	// Seed the wallet as a citizen with a stale citizen row
	user, err := st.GetOrCreateUserByWallet(context.Background(), "0xaaaa")
	require.NoError(t, err)
	civUser := &schema.CivilizationUser{UserID: user.ID, Role: domain.RoleCitizen, Color: "#112233"}
	require.NoError(t, st.CreateCivilizationUser(context.Background(), civUser))
	st.citizens[schemaKey(5, "100")] = civUser.ID

	err = svc.SyncUser(context.Background(), "0xaaaa")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, st.civUsers[user.ID].Role)
	assert.Empty(t, st.citizens)
	assert.Equal(t, user.ID, st.owners[1])
}
