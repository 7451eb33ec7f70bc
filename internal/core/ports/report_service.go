package ports

import (
	"context"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

// RawLoadRow is one row of the dispatch export as submitted by the caller.
// Dates are strings ("2006-01-02" or "01/02/2006"); the normalizer parses
// and validates them.
type RawLoadRow struct {
	LoadID       string
	TripID       string
	Truck        string
	Trailer      string
	ShipCity     string
	ShipState    string
	ConsCity     string
	ConsState    string
	PickupDate   string
	DeliveryDate string
}

// FleetUnit maps a tractor unit number to its owning company. Units with an
// empty company are owner-operators and excluded from the report.
type FleetUnit struct {
	Unit    string
	Company string
}

// CreateReportInput is the full payload of one report submission.
type CreateReportInput struct {
	Rows  []RawLoadRow
	Fleet []FleetUnit
}

// ReportResult is returned when a report run has been accepted.
type ReportResult struct {
	ReportID string
	Status   string
}

// ListRowsInput carries the query parameters for the rows endpoint.
type ListRowsInput struct {
	ReportID string
	State    string // optional: filter to one state code, or "ERROR"
	Page     int    // 1-based
	Limit    int    // capped by the service
}

// RowsPage is one page of state-mileage rows.
type RowsPage struct {
	Rows       []domain.StateMileageRow
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ReportService defines the use-case operations for mileage reports.
type ReportService interface {
	CreateReport(ctx context.Context, input CreateReportInput) (*ReportResult, error)
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	ListRows(ctx context.Context, input ListRowsInput) (*RowsPage, error)
}

// ReportJob is one queued pipeline run. The raw payload travels with the
// job; only the run metadata and the resulting rows are persisted.
type ReportJob struct {
	ReportID string
	Input    CreateReportInput
}

// ReportRunner executes a queued report job end to end.
type ReportRunner interface {
	Run(ctx context.Context, job ReportJob) error
}
