package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"WarehouseApp/internal/model"
	"WarehouseApp/internal/repo"
)

// memStore: локальное хранилище в памяти; saveErr заставляет SaveAll падать.
type memStore struct {
	mu      sync.Mutex
	saved   []model.Container
	saves   int
	saveErr error
}

func (m *memStore) Load(context.Context) ([]model.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Container, len(m.saved))
	for i := range m.saved {
		out[i] = m.saved[i].Clone()
	}
	return out, nil
}

func (m *memStore) SaveAll(_ context.Context, list []model.Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = make([]model.Container, len(list))
	for i := range list {
		m.saved[i] = list[i].Clone()
	}
	return nil
}

func (m *memStore) byNumber(number string) (model.Container, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.saved {
		if c.ContainerNumber == number {
			return c, true
		}
	}
	return model.Container{}, false
}

var _ repo.ContainerStore = (*memStore)(nil)

type mockRemote struct{ mock.Mock }

func (m *mockRemote) FetchAll(ctx context.Context) ([]model.Container, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]model.Container); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRemote) Append(ctx context.Context, c model.Container) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRemote) Upsert(ctx context.Context, c model.Container) error {
	return m.Called(ctx, c).Error(0)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) Generate(ctx context.Context, c model.Container) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

type mockUploader struct{ mock.Mock }

func (m *mockUploader) Upload(ctx context.Context, path, nameHint string) (string, error) {
	args := m.Called(ctx, path, nameHint)
	return args.String(0), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyDiscrepancies(ctx context.Context, c model.Container) error {
	return m.Called(ctx, c).Error(0)
}

var (
	_ RemoteStore     = (*mockRemote)(nil)
	_ ReportGenerator = (*mockReports)(nil)
	_ Uploader        = (*mockUploader)(nil)
	_ Notifier        = (*mockNotifier)(nil)
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memStore
	remote   *mockRemote
	reports  *mockReports
	uploader *mockUploader
	notifier *mockNotifier
	svc      *Coordinator
	now      time.Time
}

func newFixture(t *testing.T, seed ...model.Container) *fixture {
	t.Helper()
	f := &fixture{
		store:    &memStore{saved: seed},
		remote:   new(mockRemote),
		reports:  new(mockReports),
		uploader: new(mockUploader),
		notifier: new(mockNotifier),
		now:      t0,
	}
	f.svc = NewCoordinator(f.store, f.remote, Collaborators{
		Reports:  f.reports,
		Uploader: f.uploader,
		Notifier: f.notifier,
	}, zap.NewNop().Sugar())
	f.svc.Now = func() time.Time { return f.now }
	require.NoError(t, f.svc.Load(context.Background()))
	return f
}

func number(n string) any {
	return mock.MatchedBy(func(c model.Container) bool { return c.ContainerNumber == n })
}

func seedContainer(id, num string) model.Container {
	return model.New(id, num, model.ContainerImport, "1", t0.Add(-time.Hour))
}

func TestCoordinator_Load(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"), seedContainer("b", "Y2"))
	list := f.svc.Containers()
	require.Len(t, list, 2)
	assert.Equal(t, "X1", list[0].ContainerNumber)
	assert.False(t, f.svc.IsLoading())
	assert.False(t, f.svc.IsOffline())
}

func TestCoordinator_Add(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.remote.On("Append", mock.Anything, number("MSCU1")).Run(func(mock.Arguments) {
		assert.True(t, f.svc.IsLoading(), "isLoading is raised during the operation")
		_, persisted := f.store.byNumber("MSCU1")
		assert.True(t, persisted, "local persist happens before the remote mirror")
	}).Return(nil).Once()

	c, err := f.svc.Add(ctx, model.New("", " MSCU1 ", model.ContainerExport, "4", time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, "container_1714557600000", c.ID)
	assert.Equal(t, "MSCU1", c.ContainerNumber)
	assert.Equal(t, t0, c.CreatedAt)
	assert.Equal(t, t0, c.UpdatedAt)

	assert.Len(t, f.svc.Containers(), 1)
	assert.Equal(t, 1, f.store.saves)
	assert.False(t, f.svc.IsLoading())
	assert.False(t, f.svc.IsOffline())
	f.remote.AssertExpectations(t)
}

func TestCoordinator_Add_RemoteFailureSetsOffline(t *testing.T) {
	f := newFixture(t)
	f.remote.On("Append", mock.Anything, mock.Anything).Return(errors.New("503")).Once()

	c, err := f.svc.Add(context.Background(), model.New("", "MSCU1", model.ContainerImport, "", time.Time{}))
	require.NoError(t, err, "remote failure never fails the operation")
	assert.True(t, f.svc.IsOffline())

	got, err := f.svc.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "MSCU1", got.ContainerNumber)
}

func TestCoordinator_Add_SaveFailureKeepsMemory(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	f.store.saveErr = errors.New("disk full")

	_, err := f.svc.Add(context.Background(), model.New("", "MSCU1", model.ContainerImport, "", time.Time{}))
	require.Error(t, err)
	assert.Len(t, f.svc.Containers(), 1)
	f.remote.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCoordinator_Add_Rejects(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	ctx := context.Background()

	_, err := f.svc.Add(ctx, model.New("", "X1", model.ContainerImport, "", time.Time{}))
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	_, err = f.svc.Add(ctx, model.New("", "   ", model.ContainerImport, "", time.Time{}))
	assert.ErrorIs(t, err, model.ErrInvalid)

	bad := model.New("", "Z9", model.ContainerImport, "", time.Time{})
	bad.PieceCounts = []model.PieceCount{{Quantity: 0, PackageType: model.PackagePallets}}
	_, err = f.svc.Add(ctx, bad)
	assert.ErrorIs(t, err, model.ErrInvalid)

	assert.Len(t, f.svc.Containers(), 1)
	f.remote.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCoordinator_Update(t *testing.T) {
	seed := seedContainer("a", "X1")
	f := newFixture(t, seed)
	ctx := context.Background()
	f.now = t0.Add(5 * time.Minute)

	f.remote.On("Upsert", mock.Anything, number("X1")).Return(nil).Once()

	edit := seed.Clone()
	edit.DoorNumber = "7"
	edit.CreatedAt = time.Time{}
	edit.PieceCounts = []model.PieceCount{{Quantity: 10, PackageType: model.PackagePallets}}

	got, err := f.svc.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, "7", got.DoorNumber)
	assert.Equal(t, seed.CreatedAt, got.CreatedAt, "createdAt comes from the stored record")
	assert.Equal(t, f.now, got.UpdatedAt)

	stored, _ := f.store.byNumber("X1")
	assert.Equal(t, "7", stored.DoorNumber)
	f.remote.AssertExpectations(t)
}

func TestCoordinator_Update_Errors(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"), seedContainer("b", "Y2"))
	ctx := context.Background()

	_, err := f.svc.Update(ctx, seedContainer("nope", "Q1"))
	assert.ErrorIs(t, err, ErrNotFound)

	rename := seedContainer("b", "X1")
	_, err = f.svc.Update(ctx, rename)
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	f.remote.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestCoordinator_Update_KeepsCompletion(t *testing.T) {
	done := seedContainer("a", "X1")
	done.IsCompleted = true
	done.CompletedAt = &t0
	done.ShareableLink = "https://link"
	f := newFixture(t, done)
	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	edit := done.Clone()
	edit.IsCompleted = false
	edit.CompletedAt = nil
	edit.ShareableLink = ""
	got, err := f.svc.Update(context.Background(), edit)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "https://link", got.ShareableLink)
	require.NotNil(t, got.CompletedAt)
}

func TestCoordinator_Update_CannotComplete(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	edit := seedContainer("a", "X1")
	edit.IsCompleted = true
	edit.CompletedAt = &t0
	edit.ShareableLink = "https://fake"
	got, err := f.svc.Update(context.Background(), edit)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.ShareableLink)

	stored, ok := f.store.byNumber("X1")
	require.True(t, ok)
	assert.False(t, stored.IsCompleted)
	f.reports.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_RemoteSuccessClearsOffline(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	ctx := context.Background()

	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
	_, err := f.svc.Update(ctx, seedContainer("a", "X1"))
	require.NoError(t, err)
	assert.True(t, f.svc.IsOffline())

	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = f.svc.Update(ctx, seedContainer("a", "X1"))
	require.NoError(t, err)
	assert.False(t, f.svc.IsOffline())
}

func TestCoordinator_Delete(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"), seedContainer("b", "Y2"))
	ctx := context.Background()
	require.NoError(t, f.svc.SetCurrent("a"))

	require.NoError(t, f.svc.Delete(ctx, "a"))
	list := f.svc.Containers()
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
	_, ok := f.svc.Current()
	assert.False(t, ok, "deleting the current container clears the selection")

	assert.ErrorIs(t, f.svc.Delete(ctx, "a"), ErrNotFound)
	f.remote.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	f.remote.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCoordinator_Complete_NoDiscrepancies(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	ctx := context.Background()
	f.now = t0.Add(time.Hour)

	f.reports.On("Generate", mock.Anything, number("X1")).Return("/tmp/X1_report.pdf", nil).Once()
	f.uploader.On("Upload", mock.Anything, "/tmp/X1_report.pdf", "X1").Return("https://share/X1", nil).Once()
	f.remote.On("Upsert", mock.Anything, number("X1")).Return(nil).Once()

	got, err := f.svc.Complete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "https://share/X1", got.ShareableLink)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, f.now, *got.CompletedAt)
	assert.Equal(t, f.now, got.UpdatedAt)

	stored, _ := f.store.byNumber("X1")
	assert.True(t, stored.IsCompleted)

	f.notifier.AssertNotCalled(t, "NotifyDiscrepancies", mock.Anything, mock.Anything)
	f.reports.AssertExpectations(t)
	f.uploader.AssertExpectations(t)
	f.remote.AssertExpectations(t)
}

func TestCoordinator_Complete_NotifiesAfterCompletion(t *testing.T) {
	c := seedContainer("a", "X1")
	c.Discrepancies = []model.Discrepancy{{Description: "dent", Timestamp: t0}}
	f := newFixture(t, c)

	f.reports.On("Generate", mock.Anything, mock.Anything).Return("/r.pdf", nil)
	f.uploader.On("Upload", mock.Anything, "/r.pdf", "X1").Return("https://share/X1", nil)
	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("NotifyDiscrepancies", mock.Anything, mock.MatchedBy(func(c model.Container) bool {
		return c.IsCompleted && c.ShareableLink == "https://share/X1"
	})).Run(func(mock.Arguments) {
		stored, _ := f.store.byNumber("X1")
		assert.True(t, stored.IsCompleted, "record is stored as completed before notifying")
	}).Return(nil)

	_, err := f.svc.Complete(context.Background(), "a")
	require.NoError(t, err)
	f.notifier.AssertNumberOfCalls(t, "NotifyDiscrepancies", 1)
}

func TestCoordinator_Complete_NotifyFailureIgnored(t *testing.T) {
	c := seedContainer("a", "X1")
	c.Discrepancies = []model.Discrepancy{{Description: "dent", Timestamp: t0}}
	f := newFixture(t, c)

	f.reports.On("Generate", mock.Anything, mock.Anything).Return("/r.pdf", nil)
	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("https://l", nil)
	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("NotifyDiscrepancies", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	got, err := f.svc.Complete(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
}

func TestCoordinator_Complete_UploadFailure(t *testing.T) {
	c := seedContainer("a", "X1")
	c.Discrepancies = []model.Discrepancy{{Description: "dent", Timestamp: t0}}
	f := newFixture(t, c)
	savesBefore := f.store.saves

	f.reports.On("Generate", mock.Anything, mock.Anything).Return("/r.pdf", nil)
	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("403"))

	_, err := f.svc.Complete(context.Background(), "a")
	require.Error(t, err)

	got, err := f.svc.Get("a")
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
	assert.Empty(t, got.ShareableLink)
	assert.Equal(t, savesBefore, f.store.saves)
	f.remote.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "NotifyDiscrepancies", mock.Anything, mock.Anything)
}

func TestCoordinator_Complete_ReportFailure(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	f.reports.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("no space"))

	_, err := f.svc.Complete(context.Background(), "a")
	require.Error(t, err)
	f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	got, _ := f.svc.Get("a")
	assert.False(t, got.IsCompleted)
}

func TestCoordinator_Complete_Errors(t *testing.T) {
	done := seedContainer("a", "X1")
	done.IsCompleted = true
	done.CompletedAt = &t0
	done.ShareableLink = "https://l"
	f := newFixture(t, done)
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Complete(ctx, "a")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	f.reports.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestCoordinator_Complete_NoUploader(t *testing.T) {
	store := &memStore{saved: []model.Container{seedContainer("a", "X1")}}
	svc := NewCoordinator(store, nil, Collaborators{Reports: new(mockReports)}, nil)
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.Complete(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNoUploader)
}

func TestCoordinator_SyncAll_OneFailure(t *testing.T) {
	f := newFixture(t, seedContainer("a", "A1"), seedContainer("b", "B2"), seedContainer("c", "C3"))

	var order []string
	record := func(args mock.Arguments) { order = append(order, args.Get(1).(model.Container).ContainerNumber) }
	f.remote.On("Upsert", mock.Anything, number("A1")).Run(record).Return(nil).Once()
	f.remote.On("Upsert", mock.Anything, number("B2")).Run(record).Return(errors.New("429")).Once()
	f.remote.On("Upsert", mock.Anything, number("C3")).Run(record).Return(nil).Once()

	res, err := f.svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Total: 3, Synced: 2, Failed: []string{"B2"}}, res)
	assert.Equal(t, []string{"A1", "B2", "C3"}, order, "sequential, local order")
	assert.True(t, f.svc.IsOffline())
	f.remote.AssertExpectations(t)
}

func TestCoordinator_SyncAll_ClearsOffline(t *testing.T) {
	f := newFixture(t, seedContainer("a", "A1"))
	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("x")).Once()
	_, _ = f.svc.Update(context.Background(), seedContainer("a", "A1"))
	require.True(t, f.svc.IsOffline())

	f.remote.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	res, err := f.svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Failed)
	assert.False(t, f.svc.IsOffline())
}

func TestCoordinator_Refresh_Merge(t *testing.T) {
	local := seedContainer("a", "X1")
	local.DoorNumber = "local-door"
	f := newFixture(t, local)

	remoteA := model.New("X1", "X1", model.ContainerDelivery, "remote-door", t0)
	remoteA.PieceCounts = []model.PieceCount{{Quantity: 3, PackageType: model.PackageCrates}}
	remoteB := model.New("Y2", "Y2", model.ContainerExport, "", t0)
	f.remote.On("FetchAll", mock.Anything).Return([]model.Container{remoteA, remoteB}, nil).Once()

	added, err := f.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	list := f.svc.Containers()
	require.Len(t, list, 2)
	assert.Equal(t, local, list[0], "existing local container is untouched")
	assert.Equal(t, "Y2", list[1].ContainerNumber)
	assert.Equal(t, "Y2", list[1].ID)

	stored, ok := f.store.byNumber("Y2")
	assert.True(t, ok, "merged set is persisted")
	assert.Equal(t, model.ContainerExport, stored.Type)
}

func TestCoordinator_Refresh_IDCollision(t *testing.T) {
	local := seedContainer("Y2", "X1")
	f := newFixture(t, local)
	f.remote.On("FetchAll", mock.Anything).
		Return([]model.Container{model.New("Y2", "Y2", model.ContainerImport, "", t0)}, nil).Once()

	added, err := f.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	list := f.svc.Containers()
	require.Len(t, list, 2)
	assert.Equal(t, "Y2", list[1].ContainerNumber)
	assert.NotEqual(t, "Y2", list[1].ID)
	assert.True(t, strings.HasPrefix(list[1].ID, model.IDPrefix))

	got, err := f.svc.Get("Y2")
	require.NoError(t, err)
	assert.Equal(t, "X1", got.ContainerNumber, "local record keeps its id")
}

func TestCoordinator_Refresh_FetchFailure(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))
	savesBefore := f.store.saves
	f.remote.On("FetchAll", mock.Anything).Return(nil, errors.New("network")).Once()

	_, err := f.svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, f.svc.IsOffline())
	assert.Equal(t, savesBefore, f.store.saves)
	assert.Len(t, f.svc.Containers(), 1)
}

func TestCoordinator_NoRemote(t *testing.T) {
	store := &memStore{}
	svc := NewCoordinator(store, nil, Collaborators{}, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, model.New("", "X1", model.ContainerImport, "", time.Time{}))
	require.NoError(t, err)
	assert.False(t, svc.IsOffline())

	_, err = svc.SyncAll(ctx)
	assert.ErrorIs(t, err, ErrNoRemote)
	_, err = svc.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNoRemote)
}

func TestCoordinator_CurrentAndCopies(t *testing.T) {
	f := newFixture(t, seedContainer("a", "X1"))

	_, ok := f.svc.Current()
	assert.False(t, ok)
	assert.ErrorIs(t, f.svc.SetCurrent("zzz"), ErrNotFound)

	require.NoError(t, f.svc.SetCurrent("a"))
	cur, ok := f.svc.Current()
	require.True(t, ok)
	assert.Equal(t, "X1", cur.ContainerNumber)

	cur.PhotoPaths = append(cur.PhotoPaths, "/p.jpg")
	list := f.svc.Containers()
	list[0].ContainerNumber = "changed"
	again, _ := f.svc.Get("a")
	assert.Empty(t, again.PhotoPaths)
	assert.Equal(t, "X1", again.ContainerNumber)

	require.NoError(t, f.svc.SetCurrent(""))
	_, ok = f.svc.Current()
	assert.False(t, ok)
}
