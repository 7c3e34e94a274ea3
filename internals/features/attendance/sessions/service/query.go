// file: internals/features/attendance/sessions/service/query.go
package service

import (
	"context"
	"fmt"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/helpers/apperror"
	"absensiku_backend/internals/helpers/logger"

	"go.uber.org/zap"
)

const MaxPageLimit = 100

type Page struct {
	Sessions []model.AttendanceSessionModel `json:"sessions"`
	Total    int64                          `json:"total"`
	Page     int                            `json:"page"`
	Limit    int                            `json:"limit"`
}

// Query melayani riwayat presensi (read-only, paginated). Status dibaca
// dari store, tidak dihitung ulang.
type Query struct {
	Repo     repository.Repository
	Location *time.Location
	Retry    RetryPolicy
	Log      *zap.Logger
}

func NewQuery(repo repository.Repository, loc *time.Location, log *zap.Logger) *Query {
	return &Query{
		Repo:     repo,
		Location: loc,
		Retry:    DefaultReadRetry,
		Log:      logger.WithComponent(logger.OrNop(log), "attendance.query"),
	}
}

func (q *Query) Search(ctx context.Context, req Requester, f SearchFilter, page, limit int) (*Page, error) {
	filter, err := BuildFilter(req, f, q.Location)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, apperror.Validation("page must be >= 1")
	}
	if limit < 1 || limit > MaxPageLimit {
		return nil, apperror.Validation("limit must be between 1 and %d", MaxPageLimit)
	}

	out := &Page{Page: page, Limit: limit}
	err = retryRead(ctx, q.Retry, func() error {
		return q.Repo.ReadSnapshot(ctx, func(r repository.Reader) error {
			rows, err := r.FindMany(ctx, filter, page, limit)
			if err != nil {
				return err
			}
			total, err := r.Count(ctx, filter)
			if err != nil {
				return err
			}
			out.Sessions, out.Total = rows, total
			return nil
		})
	})
	if err != nil {
		q.Log.Error("[HISTORY] search failed", zap.Error(err), zap.String("requester", req.UserID.String()))
		return nil, fmt.Errorf("search attendance sessions: %w", err)
	}
	return out, nil
}
