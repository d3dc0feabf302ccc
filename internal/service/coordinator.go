package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"WarehouseApp/internal/metrics"
	"WarehouseApp/internal/model"
	"WarehouseApp/internal/repo"
)

var (
	ErrNotFound         = errors.New("container not found")
	ErrDuplicateNumber  = errors.New("container number already in use")
	ErrAlreadyCompleted = errors.New("container already completed")
	ErrNoRemote         = errors.New("remote store is not configured")
	ErrNoUploader       = errors.New("report upload is not configured")
)

// RemoteStore: удалённое зеркало коллекции (таблица).
type RemoteStore interface {
	FetchAll(ctx context.Context) ([]model.Container, error)
	Append(ctx context.Context, c model.Container) error
	Upsert(ctx context.Context, c model.Container) error
}

// ReportGenerator renders the completion report and returns the file path.
type ReportGenerator interface {
	Generate(ctx context.Context, c model.Container) (string, error)
}

// Uploader publishes a report and returns a shareable link.
type Uploader interface {
	Upload(ctx context.Context, path, nameHint string) (string, error)
}

// Notifier tells the supervisor about discrepancies.
type Notifier interface {
	NotifyDiscrepancies(ctx context.Context, c model.Container) error
}

// Collaborators: внешние сервисы, нужные для завершения контейнера.
type Collaborators struct {
	Reports  ReportGenerator
	Uploader Uploader
	Notifier Notifier
}

// SyncResult: итог SyncAll.
type SyncResult struct {
	Total  int      `json:"total"`
	Synced int      `json:"synced"`
	Failed []string `json:"failed"`
}

// Coordinator владеет коллекцией контейнеров: локальное хранилище первично,
// удалённая таблица обновляется по возможности.
//
// Операции сериализуются opMu и могут ждать сеть. Чтение состояния
// (Containers, Get, Current, IsLoading, IsOffline) не ждёт операций.
type Coordinator struct {
	store  repo.ContainerStore
	remote RemoteStore
	collab Collaborators
	logger *zap.SugaredLogger
	ids    model.IDGenerator

	Now func() time.Time

	opMu sync.Mutex

	mu         sync.RWMutex
	containers []model.Container
	currentID  string

	loading atomic.Bool
	offline atomic.Bool
}

// NewCoordinator wires the coordinator. remote may be nil when no sheet is configured.
func NewCoordinator(store repo.ContainerStore, remote RemoteStore, collab Collaborators, logger *zap.SugaredLogger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Coordinator{
		store:      store,
		remote:     remote,
		collab:     collab,
		logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
		containers: []model.Container{},
	}
}

// Load reads the local collection into memory.
func (s *Coordinator) Load(ctx context.Context) (err error) {
	done := s.begin("load")
	defer func() { done(err) }()

	list, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load containers: %w", err)
	}
	s.setContainers(list)
	s.logger.Infow("containers loaded", "count", len(list))
	return nil
}

// Containers returns a copy of the collection in local order.
func (s *Coordinator) Containers() []model.Container {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.containers)
}

// Get returns a copy of the container with id.
func (s *Coordinator) Get(id string) (model.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexByID(s.containers, id)
	if i < 0 {
		return model.Container{}, ErrNotFound
	}
	return s.containers[i].Clone(), nil
}

// SetCurrent selects the container the operator works on. Empty id clears the selection.
func (s *Coordinator) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && indexByID(s.containers, id) < 0 {
		return ErrNotFound
	}
	s.currentID = id
	return nil
}

// Current returns the selected container, if any.
func (s *Coordinator) Current() (model.Container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexByID(s.containers, s.currentID)
	if i < 0 {
		return model.Container{}, false
	}
	return s.containers[i].Clone(), true
}

// IsLoading reports whether an operation is in progress.
func (s *Coordinator) IsLoading() bool { return s.loading.Load() }

// IsOffline reports whether the last remote call failed.
func (s *Coordinator) IsOffline() bool { return s.offline.Load() }

// Add stores a new container locally and mirrors it with Append.
// An empty id is assigned, zero timestamps are stamped with now.
func (s *Coordinator) Add(ctx context.Context, c model.Container) (_ model.Container, err error) {
	done := s.begin("add")
	defer func() { done(err) }()

	now := s.Now()
	c = c.Clone()
	c.ContainerNumber = strings.TrimSpace(c.ContainerNumber)
	if c.ID == "" {
		c.ID = s.ids.Next(now)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	fillSlices(&c)
	if err := c.Validate(); err != nil {
		return model.Container{}, err
	}

	list := s.Containers()
	if indexByID(list, c.ID) >= 0 {
		return model.Container{}, fmt.Errorf("%w: id %s", model.ErrInvalid, c.ID)
	}
	if indexByNumber(list, c.ContainerNumber, "") >= 0 {
		return model.Container{}, fmt.Errorf("%w: %s", ErrDuplicateNumber, c.ContainerNumber)
	}
	list = append(list, c)
	if err := s.persist(ctx, list); err != nil {
		return model.Container{}, err
	}

	s.mirror(ctx, "append", c, s.remoteAppend)
	return c.Clone(), nil
}

// Update replaces the stored record with the same id and mirrors it with Upsert.
// id, createdAt and completion fields of the stored record are kept: only
// Complete marks a container completed.
func (s *Coordinator) Update(ctx context.Context, c model.Container) (_ model.Container, err error) {
	done := s.begin("update")
	defer func() { done(err) }()
	return s.update(ctx, c, false)
}

// update при finalize=true берёт поля завершения из c, иначе из сохранённой записи.
func (s *Coordinator) update(ctx context.Context, c model.Container, finalize bool) (model.Container, error) {
	list := s.Containers()
	i := indexByID(list, c.ID)
	if i < 0 {
		return model.Container{}, ErrNotFound
	}
	stored := list[i]

	c = c.Clone()
	c.ContainerNumber = strings.TrimSpace(c.ContainerNumber)
	c.CreatedAt = stored.CreatedAt
	if !finalize {
		c.IsCompleted = stored.IsCompleted
		c.CompletedAt = stored.CompletedAt
		c.ShareableLink = stored.ShareableLink
	}
	c.UpdatedAt = s.Now()
	fillSlices(&c)
	if err := c.Validate(); err != nil {
		return model.Container{}, err
	}
	if indexByNumber(list, c.ContainerNumber, c.ID) >= 0 {
		return model.Container{}, fmt.Errorf("%w: %s", ErrDuplicateNumber, c.ContainerNumber)
	}

	list[i] = c
	if err := s.persist(ctx, list); err != nil {
		return model.Container{}, err
	}

	s.mirror(ctx, "upsert", c, s.remoteUpsert)
	return c.Clone(), nil
}

// Delete removes the container locally. The remote row is left as is.
func (s *Coordinator) Delete(ctx context.Context, id string) (err error) {
	done := s.begin("delete")
	defer func() { done(err) }()

	list := s.Containers()
	i := indexByID(list, id)
	if i < 0 {
		return ErrNotFound
	}
	list = append(list[:i], list[i+1:]...)
	if err := s.persist(ctx, list); err != nil {
		return err
	}

	s.mu.Lock()
	if s.currentID == id {
		s.currentID = ""
	}
	s.mu.Unlock()
	return nil
}

// Complete generates the report, uploads it and stores the finalized record.
// Nothing is stored if the report or the upload fails. Containers with
// discrepancies are reported to the notifier after the record is stored.
func (s *Coordinator) Complete(ctx context.Context, id string) (_ model.Container, err error) {
	done := s.begin("complete")
	defer func() { done(err) }()

	c, err := s.Get(id)
	if err != nil {
		return model.Container{}, err
	}
	if c.IsCompleted {
		return model.Container{}, ErrAlreadyCompleted
	}
	if s.collab.Reports == nil {
		return model.Container{}, errors.New("report generator is not configured")
	}
	if s.collab.Uploader == nil {
		return model.Container{}, ErrNoUploader
	}

	path, err := s.collab.Reports.Generate(ctx, c)
	if err != nil {
		return model.Container{}, fmt.Errorf("generate report: %w", err)
	}
	link, err := s.collab.Uploader.Upload(ctx, path, c.ContainerNumber)
	if err != nil {
		return model.Container{}, fmt.Errorf("upload report: %w", err)
	}

	now := s.Now()
	c.IsCompleted = true
	c.CompletedAt = &now
	c.ShareableLink = link
	c.UpdatedAt = now
	finalized, err := s.update(ctx, c, true)
	if err != nil {
		return model.Container{}, err
	}
	s.logger.Infow("container completed", "id", finalized.ID, "number", finalized.ContainerNumber, "link", link)

	if finalized.HasDiscrepancies() && s.collab.Notifier != nil {
		if nerr := s.collab.Notifier.NotifyDiscrepancies(ctx, finalized); nerr != nil {
			s.logger.Warnw("discrepancy notification failed", "id", finalized.ID, "error", nerr)
		}
	}
	return finalized, nil
}

// SyncAll pushes every local container to the remote store, one at a time.
// Per-container failures are collected in the result and set the offline flag.
func (s *Coordinator) SyncAll(ctx context.Context) (res SyncResult, err error) {
	done := s.begin("sync")
	defer func() { done(err) }()

	if s.remote == nil {
		return SyncResult{}, ErrNoRemote
	}
	s.setOffline(false)

	list := s.Containers()
	res = SyncResult{Total: len(list), Failed: []string{}}
	for _, c := range list {
		if err := s.remote.Upsert(ctx, c); err != nil {
			metrics.RemoteFailure("upsert")
			s.logger.Warnw("sync container failed", "id", c.ID, "number", c.ContainerNumber, "error", err)
			res.Failed = append(res.Failed, c.ContainerNumber)
			continue
		}
		res.Synced++
	}
	if len(res.Failed) > 0 {
		s.setOffline(true)
	}
	s.logger.Infow("sync finished", "total", res.Total, "synced", res.Synced, "failed", len(res.Failed))
	return res, nil
}

// Refresh pulls the remote collection and adds containers whose number is
// not known locally. Local records are never overwritten. It returns the
// number of containers added.
func (s *Coordinator) Refresh(ctx context.Context) (added int, err error) {
	done := s.begin("refresh")
	defer func() { done(err) }()

	if s.remote == nil {
		return 0, ErrNoRemote
	}
	s.setOffline(false)

	remote, err := s.remote.FetchAll(ctx)
	if err != nil {
		metrics.RemoteFailure("fetch")
		s.setOffline(true)
		return 0, fmt.Errorf("fetch remote containers: %w", err)
	}

	list := s.Containers()
	known := make(map[string]struct{}, len(list))
	ids := make(map[string]struct{}, len(list))
	for _, c := range list {
		known[c.ContainerNumber] = struct{}{}
		ids[c.ID] = struct{}{}
	}
	now := s.Now()
	for _, rc := range remote {
		if _, ok := known[rc.ContainerNumber]; ok {
			continue
		}
		known[rc.ContainerNumber] = struct{}{}
		// id строки из таблицы совпадает с номером и может быть уже занят локально.
		for _, taken := ids[rc.ID]; taken || rc.ID == ""; _, taken = ids[rc.ID] {
			rc.ID = s.ids.Next(now)
		}
		ids[rc.ID] = struct{}{}
		fillSlices(&rc)
		list = append(list, rc)
		added++
	}
	if err := s.persist(ctx, list); err != nil {
		return 0, err
	}
	s.logger.Infow("refresh finished", "remote", len(remote), "added", added)
	return added, nil
}

// begin takes the operation lock and raises isLoading; the returned func undoes both.
func (s *Coordinator) begin(op string) func(error) {
	s.opMu.Lock()
	s.loading.Store(true)
	return func(err error) {
		metrics.ObserveOperation(op, err)
		if err != nil {
			s.logger.Errorw("operation failed", "op", op, "error", err)
		}
		s.loading.Store(false)
		s.opMu.Unlock()
	}
}

// persist writes list to the local store and only then makes it the in-memory state.
func (s *Coordinator) persist(ctx context.Context, list []model.Container) error {
	if err := s.store.SaveAll(ctx, list); err != nil {
		return fmt.Errorf("save containers: %w", err)
	}
	s.setContainers(list)
	return nil
}

// mirror runs the remote step. Its failure only flips the offline flag.
func (s *Coordinator) mirror(ctx context.Context, op string, c model.Container, call func(context.Context, model.Container) error) {
	if s.remote == nil {
		return
	}
	if err := call(ctx, c); err != nil {
		metrics.RemoteFailure(op)
		s.setOffline(true)
		s.logger.Warnw("remote mirror failed", "op", op, "id", c.ID, "number", c.ContainerNumber, "error", err)
		return
	}
	s.setOffline(false)
}

func (s *Coordinator) remoteAppend(ctx context.Context, c model.Container) error {
	return s.remote.Append(ctx, c)
}

func (s *Coordinator) remoteUpsert(ctx context.Context, c model.Container) error {
	return s.remote.Upsert(ctx, c)
}

func (s *Coordinator) setOffline(v bool) {
	s.offline.Store(v)
	metrics.SetOffline(v)
}

func (s *Coordinator) setContainers(list []model.Container) {
	s.mu.Lock()
	s.containers = cloneAll(list)
	s.mu.Unlock()
}

func cloneAll(list []model.Container) []model.Container {
	out := make([]model.Container, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

func indexByID(list []model.Container, id string) int {
	if id == "" {
		return -1
	}
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// indexByNumber ищет контейнер с номером number, пропуская запись exceptID.
func indexByNumber(list []model.Container, number, exceptID string) int {
	for i := range list {
		if list[i].ContainerNumber == number && list[i].ID != exceptID {
			return i
		}
	}
	return -1
}

func fillSlices(c *model.Container) {
	if c.PieceCounts == nil {
		c.PieceCounts = []model.PieceCount{}
	}
	if c.MaterialsSupplied == nil {
		c.MaterialsSupplied = []model.MaterialType{}
	}
	if c.Discrepancies == nil {
		c.Discrepancies = []model.Discrepancy{}
	}
	if c.PhotoPaths == nil {
		c.PhotoPaths = []string{}
	}
}
