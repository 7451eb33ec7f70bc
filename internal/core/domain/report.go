package domain

import (
	"errors"
	"fmt"
	"time"
)

// ReportStatus represents the lifecycle state of a mileage report run.
type ReportStatus string

const (
	ReportQueued    ReportStatus = "queued"
	ReportRunning   ReportStatus = "running"
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
)

var (
	// ErrUnsortedRecords is returned when the record stream violates the
	// (truck, trailer, pickup date) ordering contract.
	ErrUnsortedRecords = errors.New("records are not sorted by truck, trailer, pickup date")
	// ErrMissingField is returned when a record lacks a field segmentation
	// depends on.
	ErrMissingField = errors.New("record is missing a required field")
	// ErrEmptyRoute is raised when the resolver returns a degenerate
	// geometry that cannot be attributed.
	ErrEmptyRoute = errors.New("route geometry is empty")

	ErrReportNotFound = errors.New("report not found")
	ErrForbidden      = errors.New("access forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

// MileageStatus tells downstream consumers whether a row carries real miles
// or the calculation-failure sentinel.
type MileageStatus string

const (
	MileageOK     MileageStatus = "ok"
	MileageFailed MileageStatus = "calculation_failed"
)

// Sentinel literals used in rendered output so report consumers can filter
// failed rows with `state != "ERROR"` or `miles == "CALCULATION_FAILED"`.
const (
	ErrorStateCode      = "ERROR"
	FailedMilesSentinel = "CALCULATION_FAILED"
)

// StateMileageRow is one state crossed by one leg. Rows are append-only
// outputs of attribution.
type StateMileageRow struct {
	Ref          ReferenceID   `json:"ref" bson:"ref"`
	LoadID       string        `json:"load_id,omitempty" bson:"load_id,omitempty"`
	Truck        string        `json:"truck" bson:"truck"`
	Trailer      string        `json:"trailer" bson:"trailer"`
	PickupDate   time.Time     `json:"pickup_date" bson:"pickup_date"`
	DeliveryDate time.Time     `json:"delivery_date" bson:"delivery_date"`
	State        string        `json:"state" bson:"state"`
	Miles        float64       `json:"miles" bson:"miles"`
	Status       MileageStatus `json:"status" bson:"status"`
	// Detail holds the failure cause on sentinel rows.
	Detail string `json:"detail,omitempty" bson:"detail,omitempty"`
}

// MilesLabel renders the miles column for report output: a fixed-precision
// number, or the failure sentinel on rows whose calculation failed.
func (r StateMileageRow) MilesLabel() string {
	if r.Status == MileageFailed {
		return FailedMilesSentinel
	}
	return fmt.Sprintf("%.2f", r.Miles)
}

// ReportSummary aggregates run counters for quick inspection.
type ReportSummary struct {
	RecordsIn    int `json:"records_in" bson:"records_in"`
	RecordsKept  int `json:"records_kept" bson:"records_kept"`
	Groups       int `json:"groups" bson:"groups"`
	Legs         int `json:"legs" bson:"legs"`
	VirtualLegs  int `json:"virtual_legs" bson:"virtual_legs"`
	ReviewGroups int `json:"review_groups" bson:"review_groups"`
	RowsEmitted  int `json:"rows_emitted" bson:"rows_emitted"`
	ErrorRows    int `json:"error_rows" bson:"error_rows"`
}

// Report is one pipeline run over a submitted batch of load records.
type Report struct {
	ID          string        `json:"id" bson:"_id"`
	Status      ReportStatus  `json:"status" bson:"status"`
	SubmittedAt time.Time     `json:"submitted_at" bson:"submitted_at"`
	StartedAt   time.Time     `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt time.Time     `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Summary     ReportSummary `json:"summary" bson:"summary"`
	// Error is set when the run failed on an input-contract violation.
	Error string `json:"error,omitempty" bson:"error,omitempty"`
}
