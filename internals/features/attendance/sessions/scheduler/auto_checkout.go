// file: internals/features/attendance/sessions/scheduler/auto_checkout.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/engine"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/features/attendance/sessions/service"
	"absensiku_backend/internals/helpers/apperror"
	"absensiku_backend/internals/helpers/dbtime"
	"absensiku_backend/internals/helpers/logger"
	"absensiku_backend/internals/helpers/metrics"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSpec      = "*/15 * * * *"
	DefaultBatchSize = 500
	DefaultLockTTL   = 10 * time.Minute
	sweepTimeout     = 8 * time.Minute
)

var ErrSweepRunning = apperror.Conflict("auto checkout sweep is already running")

// Report ringkasan satu kali sweep.
type Report struct {
	Scanned  int `json:"scanned"`
	Closed   int `json:"closed"`
	RaceLost int `json:"race_lost"`
	NotDue   int `json:"not_due"`
	Failed   int `json:"failed"`
}

// Scheduler menutup sesi yang lupa checkout setelah cutoff hari bisnisnya.
type Scheduler struct {
	Repo      repository.Repository
	Policy    engine.Policy
	Locker    Locker
	Spec      string
	BatchSize int
	Now       func() time.Time
	Log       *zap.Logger

	cron *cron.Cron
}

func New(repo repository.Repository, policy engine.Policy, locker Locker, spec string, log *zap.Logger) *Scheduler {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		Repo:      repo,
		Policy:    policy,
		Locker:    locker,
		Spec:      spec,
		BatchSize: DefaultBatchSize,
		Now:       time.Now,
		Log:       logger.WithComponent(logger.OrNop(log), "attendance.auto-checkout"),
	}
}

// ── ENTRYPOINT: panggil dari main.go
func (s *Scheduler) Start() error {
	c := cron.New(
		cron.WithLocation(s.Policy.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(s.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrSweepRunning) {
			s.Log.Error("[AUTO-CHECKOUT] sweep error", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add auto checkout cron %q: %w", s.Spec, err)
	}
	s.cron = c
	c.Start()
	s.Log.Info("[AUTO-CHECKOUT] started", zap.String("schedule", s.Spec), zap.String("cutoff", s.Policy.SweepCutoff.String()))
	return nil
}

// Stop menunggu sweep yang sedang jalan selesai (atau ctx habis).
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.Log.Warn("[AUTO-CHECKOUT] stop timeout, sweep still running")
	}
}

// RunOnce = Sweep di bawah lock global. Dipakai cron & trigger admin.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	release, ok, err := s.Locker.TryLock(ctx)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		s.Log.Info("[AUTO-CHECKOUT] skipped, another sweep holds the lock")
		return Report{}, ErrSweepRunning
	}
	defer release(context.Background())
	return s.Sweep(ctx)
}

// Sweep memindai sesi terbuka (keyset per id) dan menutup yang sudah lewat
// cutoff. Aman diulang: sesi yang sudah tertutup tidak tersentuh.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	var rep Report
	started := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(started).Seconds()) }()

	now := s.Now()
	notAfter := dbtime.DayStart(now, s.Policy.Location)
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	afterID := uuid.Nil
	for {
		rows, err := s.Repo.ListOpen(ctx, notAfter, afterID, batch)
		if err != nil {
			return rep, fmt.Errorf("list open sessions: %w", err)
		}
		for i := range rows {
			sess := &rows[i]
			rep.Scanned++

			p := engine.FromSnapshot(sess.PolicySnapshot.Data(), s.Policy)
			cutoff := p.CutoffOn(sess.Date)
			if now.Before(cutoff) {
				rep.NotDue++
				continue
			}
			closeAt := cutoff
			if closeAt.Before(sess.CheckInTime) {
				closeAt = sess.CheckInTime
			}

			patch := service.ClosurePatch(sess, closeAt, true, s.Policy)
			_, applied, err := s.Repo.ConditionalUpdate(ctx, sess.ID, repository.ExpectOpen, patch)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return rep, ctx.Err()
				}
				rep.Failed++
				s.Log.Error("[AUTO-CHECKOUT] close failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
			case !applied:
				// sudah ditutup user di antara scan & update
				rep.RaceLost++
				metrics.SweepRaceLost.Inc()
			default:
				rep.Closed++
				metrics.SweepClosed.Inc()
			}
		}
		if len(rows) < batch {
			break
		}
		afterID = rows[len(rows)-1].ID
	}

	if rep.Closed > 0 || rep.Failed > 0 {
		s.Log.Info("[AUTO-CHECKOUT] sweep done",
			zap.Int("scanned", rep.Scanned),
			zap.Int("closed", rep.Closed),
			zap.Int("race_lost", rep.RaceLost),
			zap.Int("not_due", rep.NotDue),
			zap.Int("failed", rep.Failed),
		)
	}
	return rep, nil
}
