package ports

import (
	"context"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

// RowsFilter selects state-mileage rows for one report.
type RowsFilter struct {
	ReportID string
	State    string // optional: exact state code ("CA", "ERROR", ...)
	Page     int    // 1-based
	Limit    int
}

// ReportRepository defines persistence for report runs and their rows.
type ReportRepository interface {
	CreateReport(ctx context.Context, r *domain.Report) error
	UpdateReport(ctx context.Context, r *domain.Report) error
	FindReportByID(ctx context.Context, id string) (*domain.Report, error)
	// InsertRows appends a batch of rows for the given report, preserving
	// slice order.
	InsertRows(ctx context.Context, reportID string, rows []domain.StateMileageRow) error
	// ListRows returns a page of rows in insertion order plus the total count.
	ListRows(ctx context.Context, filter RowsFilter) ([]domain.StateMileageRow, int64, error)
}
