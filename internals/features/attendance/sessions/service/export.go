// file: internals/features/attendance/sessions/service/export.go
package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/helpers/dbtime"
	"absensiku_backend/internals/helpers/logger"
	"absensiku_backend/internals/helpers/metrics"

	"go.uber.org/zap"
)

const ExportBatchSize = 500

// ExportColumns = urutan kolom file export (baris pertama).
var ExportColumns = []string{
	"id",
	"userName",
	"userEmail",
	"date",
	"workLocation",
	"status",
	"flags",
	"checkInTime",
	"checkOutTime",
	"totalHours",
	"isLate",
	"lateMinutes",
}

// Exporter menulis hasil filter yang sama dengan Query, tanpa paginasi,
// diambil per batch keyset supaya memori tetap kecil.
type Exporter struct {
	Repo      repository.Repository
	Location  *time.Location
	BatchSize int
	Retry     RetryPolicy
	Log       *zap.Logger
}

func NewExporter(repo repository.Repository, loc *time.Location, log *zap.Logger) *Exporter {
	return &Exporter{
		Repo:      repo,
		Location:  loc,
		BatchSize: ExportBatchSize,
		Retry:     DefaultReadRetry,
		Log:       logger.WithComponent(logger.OrNop(log), "attendance.export"),
	}
}

// Prepare memvalidasi requester, filter & format sebelum response dimulai,
// supaya error masih bisa dikirim sebagai JSON biasa.
func (e *Exporter) Prepare(req Requester, f SearchFilter, format string) (repository.Filter, string, error) {
	filter, err := BuildFilter(req, f, e.Location)
	if err != nil {
		return repository.Filter{}, "", err
	}
	fm, err := NormalizeFormat(format)
	if err != nil {
		return repository.Filter{}, "", err
	}
	return filter, fm, nil
}

// Export mengembalikan jumlah baris data yang ditulis (tanpa header).
func (e *Exporter) Export(ctx context.Context, req Requester, f SearchFilter, format string, w io.Writer) (int, error) {
	filter, fm, err := e.Prepare(req, f, format)
	if err != nil {
		return 0, err
	}
	return e.Stream(ctx, filter, fm, w)
}

// Stream menjalankan export untuk filter yang sudah tervalidasi.
func (e *Exporter) Stream(ctx context.Context, filter repository.Filter, format string, w io.Writer) (n int, err error) {
	rw, err := NewRowWriter(format, w)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := rw.Close(); cerr != nil && err == nil {
			err = cerr
		}
		metrics.ExportRows.WithLabelValues(format).Add(float64(n))
	}()

	if err = rw.WriteHeader(ExportColumns); err != nil {
		return 0, fmt.Errorf("write export header: %w", err)
	}

	batch := e.BatchSize
	if batch <= 0 {
		batch = ExportBatchSize
	}

	var after *repository.Cursor
	for {
		var rows []repository.ExportRow
		err = retryRead(ctx, e.Retry, func() error {
			var rerr error
			rows, rerr = e.Repo.ExportBatch(ctx, filter, after, batch)
			return rerr
		})
		if err != nil {
			e.Log.Error("[EXPORT] batch failed", zap.Error(err), zap.Int("written", n))
			return n, fmt.Errorf("export batch: %w", err)
		}
		for i := range rows {
			if err = rw.WriteRow(e.exportValues(rows[i])); err != nil {
				return n, fmt.Errorf("write export row: %w", err)
			}
			n++
		}
		if len(rows) < batch {
			break
		}
		c := rows[len(rows)-1].Cursor()
		after = &c
	}

	e.Log.Info("[EXPORT] done", zap.String("format", format), zap.Int("rows", n))
	return n, nil
}

func (e *Exporter) exportValues(r repository.ExportRow) []string {
	ts := func(t time.Time) string { return t.In(e.Location).Format(time.RFC3339) }

	out := []string{
		r.ID.String(),
		r.UserName,
		r.UserEmail,
		dbtime.FormatDay(r.Date, e.Location),
		string(r.WorkLocation),
		string(r.Status),
		strings.Join(r.Flags, "|"),
		ts(r.CheckInTime),
		"",
		"",
		strconv.FormatBool(r.IsLate),
		strconv.Itoa(r.LateMinutes),
	}
	if r.CheckOutTime != nil {
		out[8] = ts(*r.CheckOutTime)
	}
	if r.TotalHours != nil {
		out[9] = strconv.FormatFloat(*r.TotalHours, 'f', 2, 64)
	}
	return out
}
