// file: internals/features/attendance/sessions/service/scope.go
package service

import (
	"strings"
	"time"

	"absensiku_backend/internals/constants"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/helpers/apperror"
	"absensiku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

// Requester = identitas yang sudah diautentikasi di luar service ini.
type Requester struct {
	UserID uuid.UUID
	Role   string
}

// SearchFilter mentah dari query string; semua opsional.
type SearchFilter struct {
	UserID       string
	DateFrom     string // YYYY-MM-DD
	DateTo       string // YYYY-MM-DD
	WorkLocation string
	Status       string // "CHECKED_OUT,AUTO_CHECKED_OUT"
}

// BuildFilter: scope role dulu (tidak bisa ditimpa filter), baru dimensi lain.
func BuildFilter(req Requester, f SearchFilter, loc *time.Location) (repository.Filter, error) {
	var out repository.Filter

	if req.UserID == uuid.Nil {
		return out, apperror.Unauthorized("identity is required")
	}
	scope, ok := constants.ScopeOf(req.Role)
	if !ok {
		return out, apperror.Forbidden("role %q may not query attendance", req.Role)
	}

	switch scope {
	case constants.ScopeSelf:
		uid := req.UserID
		out.UserID = &uid
	case constants.ScopeAll:
		if s := strings.TrimSpace(f.UserID); s != "" {
			uid, err := uuid.Parse(s)
			if err != nil {
				return out, apperror.Validation("invalid userId %q", s)
			}
			out.UserID = &uid
		}
	}

	if s := strings.TrimSpace(f.DateFrom); s != "" {
		d, err := dbtime.ParseDay(s, loc)
		if err != nil {
			return out, apperror.Validation("dateFrom: %s", err.Error())
		}
		from := dbtime.DayStart(d, loc)
		out.From = &from
	}
	if s := strings.TrimSpace(f.DateTo); s != "" {
		d, err := dbtime.ParseDay(s, loc)
		if err != nil {
			return out, apperror.Validation("dateTo: %s", err.Error())
		}
		to := dbtime.DayEnd(d, loc)
		out.To = &to
	}
	if out.From != nil && out.To != nil && out.From.After(*out.To) {
		return out, apperror.Validation("dateFrom must not be after dateTo")
	}

	if s := strings.TrimSpace(f.WorkLocation); s != "" {
		wl, err := model.ParseWorkLocation(s)
		if err != nil {
			return out, apperror.Validation("%s", err.Error())
		}
		out.WorkLocation = &wl
	}

	if s := strings.TrimSpace(f.Status); s != "" {
		seen := map[model.SessionStatus]bool{}
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			st, err := model.ParseSessionStatus(part)
			if err != nil {
				return out, apperror.Validation("%s", err.Error())
			}
			if !seen[st] {
				seen[st] = true
				out.Statuses = append(out.Statuses, st)
			}
		}
	}

	return out, nil
}
