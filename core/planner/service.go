package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
)

var (
	// errors
	ErrActivityNotFound = core.NewNotFoundError("activity")
	ErrStudentNotFound  = core.NewNotFoundError("student")
	ErrTimeSlotNotFound = core.NewNotFoundError("time slot")
	ErrOverrideNotFound = core.NewNotFoundError("schedule override")
	ErrEntryNotFound    = core.NewNotFoundError("class entry")
	ErrNoRemote         = errors.New("no remote backend configured")
)

const defaultProbeInterval = 30 * time.Second

type (
	Deps struct {
		Repo          Repository // nil: no remote backend, the cache is the source of truth
		// Prepare (optional) creates the remote schema; retried on load and sync until it succeeds once.
		Prepare       func(ctx context.Context) error
		Cache         Cache
		Logger        core.Logger
		Validate      *validator.Validate
		Metrics       Metrics
		ProbeInterval time.Duration
	}

	// Service applies the planner operations on the in-memory State and persists them:
	// remote first (errors are logged, never returned), then always the local cache.
	Service struct {
		state         *State
		repo          Repository
		prepare       func(ctx context.Context) error
		prepared      bool
		cache         Cache
		logger        core.Logger
		validate      *validator.Validate
		metrics       Metrics
		probeInterval time.Duration

		// serializes mutations with their persistence so remote writes keep the mutation order
		persistMu sync.Mutex
	}

	Status struct {
		Online         bool       `json:"online"`
		Loading        bool       `json:"loading"`
		RemoteEnabled  bool       `json:"remoteEnabled"`
		LastSync       *time.Time `json:"lastSync,omitempty"` // nil until the first successful remote exchange
		ProbeInterval  string     `json:"probeInterval"`
		CachedEntities int        `json:"cachedEntities"`
	}
)

func NewService(deps Deps) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Cache, "Cache"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Validate, "Validate"),
	).CheckAndPanic()

	svc := &Service{
		state:         NewState(),
		repo:          deps.Repo,
		prepare:       deps.Prepare,
		cache:         deps.Cache,
		logger:        deps.Logger,
		validate:      deps.Validate,
		metrics:       deps.Metrics,
		probeInterval: deps.ProbeInterval,
	}
	if svc.metrics == nil {
		svc.metrics = noopMetrics{}
	}
	if svc.probeInterval <= 0 {
		svc.probeInterval = defaultProbeInterval
	}
	return svc
}

// State exposes the in-memory state (read only use).
func (svc *Service) State() *State { return svc.state }

func (svc *Service) RemoteEnabled() bool { return svc.repo != nil }

func (svc *Service) Status() Status {
	snap := svc.state.Snapshot()
	var lastSync *time.Time
	if ls := svc.state.LastSync(); !ls.IsZero() {
		lastSync = &ls
	}
	return Status{
		Online:         svc.state.Online(),
		Loading:        svc.state.Loading(),
		RemoteEnabled:  svc.RemoteEnabled(),
		LastSync:       lastSync,
		ProbeInterval:  svc.probeInterval.String(),
		CachedEntities: len(snap.Activities) + len(snap.Students) + len(snap.TimeSlots) + len(snap.ScheduleOverrides) + len(snap.ClassEntries),
	}
}

func (svc *Service) setOnline(online bool) {
	svc.state.setOnline(online)
	svc.metrics.SetOnline(online)
}

// Load fills the state at startup: from the remote when reachable (migrating the local cache into
// an empty remote), else from the local cache.
func (svc *Service) Load(ctx context.Context) error {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	svc.state.setLoading(true)
	defer svc.state.setLoading(false)

	if svc.repo == nil {
		return svc.loadFromCache(ctx)
	}

	snap, err := svc.fetchRemote(ctx)
	if err != nil {
		svc.logger.Error("loading from remote failed, using local cache", err)
		svc.metrics.Fallback("load")
		svc.setOnline(false)
		return svc.loadFromCache(ctx)
	}
	svc.state.Replace(snap)
	svc.setOnline(true)
	svc.logger.Info("state loaded from remote")

	if snap.IsEmpty() {
		migrated, err := svc.migrateFromCache(ctx)
		if err != nil {
			svc.logger.Error("migration from local cache failed", err)
			svc.metrics.Fallback("migration")
			svc.setOnline(false)
			return svc.loadFromCache(ctx)
		}
		if !migrated {
			return nil
		}
	}
	svc.writeCache(ctx)
	return nil
}

func (svc *Service) fetchRemote(ctx context.Context) (Snapshot, error) {
	svc.metrics.RemoteCall("load")
	if err := svc.prepareRemote(ctx); err != nil {
		svc.metrics.RemoteFailure("load")
		return Snapshot{}, err
	}
	if err := svc.repo.Ping(ctx); err != nil {
		svc.metrics.RemoteFailure("load")
		return Snapshot{}, errors.Wrap(err, "pinging remote")
	}
	snap, err := fetchAll(ctx, svc.repo)
	if err != nil {
		svc.metrics.RemoteFailure("load")
		return Snapshot{}, errors.Wrap(err, "fetching remote state")
	}
	return snap, nil
}

// prepareRemote runs the Prepare hook until it succeeds once. Must be called with persistMu held.
func (svc *Service) prepareRemote(ctx context.Context) error {
	if svc.prepare == nil || svc.prepared {
		return nil
	}
	if err := svc.prepare(ctx); err != nil {
		return errors.Wrap(err, "preparing remote")
	}
	svc.prepared = true
	svc.logger.Info("remote prepared")
	return nil
}

func (svc *Service) loadFromCache(ctx context.Context) error {
	snap, found, err := svc.cache.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "loading local cache")
	}
	if found {
		svc.state.Replace(snap)
		svc.logger.Info("state loaded from local cache")
	}
	return nil
}

// migrateFromCache copies the cached snapshot into the (empty) remote entity by entity,
// then reloads the state from the remote. There is no rollback: a failure leaves the remote
// half migrated.
func (svc *Service) migrateFromCache(ctx context.Context) (bool, error) {
	local, found, err := svc.cache.Load(ctx)
	if err != nil {
		return false, errors.Wrap(err, "loading local cache")
	}
	if !found || (local.IsEmpty() && len(local.ClassEntries) == 0 && len(local.ScheduleOverrides) == 0) {
		return false, nil
	}
	svc.logger.Info("migrating local cache to remote")
	svc.metrics.RemoteCall("migrate")

	if local.CourseStartDate != "" || local.CourseEndDate != "" {
		if err = svc.repo.SaveCourseSettings(ctx, local.CourseSettings()); err != nil {
			return false, svc.migrationErr(err, "course settings")
		}
	}
	for _, st := range local.Students {
		if _, err = svc.repo.SaveStudent(ctx, st); err != nil {
			return false, svc.migrationErr(err, "student "+st.ID)
		}
	}
	for _, ts := range local.TimeSlots {
		if _, err = svc.repo.SaveTimeSlot(ctx, ts); err != nil {
			return false, svc.migrationErr(err, "time slot "+ts.ID)
		}
	}
	for _, a := range local.Activities {
		if _, err = svc.repo.SaveActivity(ctx, a); err != nil {
			return false, svc.migrationErr(err, "activity "+a.ID)
		}
	}
	for key, activityID := range local.Schedule {
		if err = svc.repo.SetScheduleSlot(ctx, key, activityID); err != nil {
			return false, svc.migrationErr(err, "schedule slot "+key)
		}
	}
	for _, ov := range local.ScheduleOverrides {
		if _, err = svc.repo.SaveOverride(ctx, ov); err != nil {
			return false, svc.migrationErr(err, "override "+ov.ID)
		}
	}
	for key, e := range local.ClassEntries {
		if err = svc.repo.SaveClassEntry(ctx, key, e); err != nil {
			return false, svc.migrationErr(err, "class entry "+key)
		}
	}

	snap, err := fetchAll(ctx, svc.repo)
	if err != nil {
		return false, svc.migrationErr(err, "reloading")
	}
	svc.state.Replace(snap)
	svc.logger.Info("migration completed")
	return true, nil
}

func (svc *Service) migrationErr(err error, step string) error {
	svc.metrics.RemoteFailure("migrate")
	return errors.Wrap(err, "migrating "+step)
}

// Sync pushes the whole in-memory state to the remote (last write wins) and flips online on success.
func (svc *Service) Sync(ctx context.Context) error {
	if svc.repo == nil {
		return ErrNoRemote
	}
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()
	return svc.syncLocked(ctx)
}

func (svc *Service) syncLocked(ctx context.Context) error {
	started := time.Now()
	svc.metrics.RemoteCall("sync")
	err := svc.prepareRemote(ctx)
	if err == nil {
		err = push(ctx, svc.repo, svc.state.Snapshot())
	}
	svc.metrics.ObserveSync(time.Since(started).Seconds(), err)
	if err != nil {
		svc.metrics.RemoteFailure("sync")
		svc.setOnline(false)
		return errors.Wrap(err, "syncing remote")
	}
	svc.setOnline(true)
	return nil
}

// Run probes the remote every probe interval while offline and reconciles on reconnect.
// It blocks until ctx is done.
func (svc *Service) Run(ctx context.Context) {
	if svc.repo == nil {
		return
	}
	ticker := time.NewTicker(svc.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if svc.state.Online() {
				continue
			}
			if err := svc.Sync(ctx); err != nil {
				svc.logger.Debug("remote still unreachable", err)
				continue
			}
			svc.logger.Info("remote reachable again, local changes pushed")
		}
	}
}

// persist runs the remote step of a mutation, then always writes the local cache.
// Must be called with persistMu held.
func (svc *Service) persist(ctx context.Context, op string, remote func(ctx context.Context) error) {
	switch {
	case svc.repo == nil:
	case !svc.state.Online():
		// a single write would leave the remote missing everything changed while offline
		if err := svc.syncLocked(ctx); err != nil {
			svc.metrics.Fallback(op)
			svc.logger.Debug(fmt.Sprintf("%s: remote unreachable, saved locally", op), err)
		}
	default:
		svc.metrics.RemoteCall(op)
		if err := remote(ctx); err != nil {
			svc.metrics.RemoteFailure(op)
			svc.metrics.Fallback(op)
			svc.setOnline(false)
			svc.logger.Error(fmt.Sprintf("%s: remote write failed, saved locally", op), errors.Wrap(err, op))
		}
	}
	svc.writeCache(ctx)
}

func (svc *Service) writeCache(ctx context.Context) {
	err := svc.cache.Save(ctx, svc.state.Snapshot())
	svc.metrics.CacheWrite(err)
	if err != nil {
		svc.logger.Error("writing local cache", errors.Wrap(err, "writing local cache"))
	}
}

// push reconciles the remote with snap: upserts everything, removes what snap no longer has.
func push(ctx context.Context, repo Repository, snap Snapshot) error {
	if err := repo.Ping(ctx); err != nil {
		return errors.Wrap(err, "pinging remote")
	}
	remote, err := fetchAll(ctx, repo)
	if err != nil {
		return errors.Wrap(err, "fetching remote state")
	}

	if snap.CourseSettings() != remote.CourseSettings() {
		if err = repo.SaveCourseSettings(ctx, snap.CourseSettings()); err != nil {
			return errors.Wrap(err, "saving course settings")
		}
	}

	keepStudents := make(map[string]bool, len(snap.Students))
	for _, st := range snap.Students {
		keepStudents[st.ID] = true
		if _, err = repo.SaveStudent(ctx, st); err != nil {
			return errors.Wrap(err, "saving student")
		}
	}
	for _, st := range remote.Students {
		if !keepStudents[st.ID] {
			if err = repo.DeleteStudent(ctx, st.ID); err != nil {
				return errors.Wrap(err, "deleting student")
			}
		}
	}

	keepSlots := make(map[string]bool, len(snap.TimeSlots))
	for _, ts := range snap.TimeSlots {
		keepSlots[ts.ID] = true
		if _, err = repo.SaveTimeSlot(ctx, ts); err != nil {
			return errors.Wrap(err, "saving time slot")
		}
	}
	for _, ts := range remote.TimeSlots {
		if !keepSlots[ts.ID] {
			if err = repo.DeleteTimeSlot(ctx, ts.ID); err != nil {
				return errors.Wrap(err, "deleting time slot")
			}
		}
	}

	keepActivities := make(map[string]bool, len(snap.Activities))
	for _, a := range snap.Activities {
		keepActivities[a.ID] = true
		if _, err = repo.SaveActivity(ctx, a); err != nil {
			return errors.Wrap(err, "saving activity")
		}
	}
	for _, a := range remote.Activities {
		if !keepActivities[a.ID] {
			if err = repo.DeleteActivity(ctx, a.ID); err != nil {
				return errors.Wrap(err, "deleting activity")
			}
		}
	}

	for key, activityID := range snap.Schedule {
		if remote.Schedule[key] != activityID {
			if err = repo.SetScheduleSlot(ctx, key, activityID); err != nil {
				return errors.Wrap(err, "saving schedule slot")
			}
		}
	}
	for key := range remote.Schedule {
		if _, ok := snap.Schedule[key]; !ok {
			if err = repo.SetScheduleSlot(ctx, key, ""); err != nil {
				return errors.Wrap(err, "removing schedule slot")
			}
		}
	}

	keepOverrides := make(map[string]bool, len(snap.ScheduleOverrides))
	for _, ov := range snap.ScheduleOverrides {
		keepOverrides[ov.ID] = true
		if _, err = repo.SaveOverride(ctx, ov); err != nil {
			return errors.Wrap(err, "saving override")
		}
	}
	for _, ov := range remote.ScheduleOverrides {
		if !keepOverrides[ov.ID] {
			if err = repo.DeleteOverride(ctx, ov.ID); err != nil {
				return errors.Wrap(err, "deleting override")
			}
		}
	}

	for key, e := range snap.ClassEntries {
		if err = repo.SaveClassEntry(ctx, key, e); err != nil {
			return errors.Wrap(err, "saving class entry")
		}
	}
	for key := range remote.ClassEntries {
		if _, ok := snap.ClassEntries[key]; !ok {
			if err = repo.DeleteClassEntry(ctx, key); err != nil {
				return errors.Wrap(err, "deleting class entry")
			}
		}
	}
	return nil
}
