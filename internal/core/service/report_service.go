package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/api/metrics"
	"github.com/anshfreight/ifta-miles/internal/core/domain"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

const (
	maxRowsPageSize = 500
	rowInsertBatch  = 1000
)

// ReportService orchestrates the pipeline: normalize the submitted rows,
// segment them into trip groups, attribute state mileage per group, and
// persist the resulting ledger. Runs execute asynchronously via the job
// queue; CreateReport only registers the run.
type ReportService struct {
	repo       ports.ReportRepository
	normalizer *Normalizer
	segmenter  *SegmentationService
	attributor *AttributionService
	logger     zerolog.Logger
}

func NewReportService(
	repo ports.ReportRepository,
	normalizer *Normalizer,
	segmenter *SegmentationService,
	attributor *AttributionService,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		repo:       repo,
		normalizer: normalizer,
		segmenter:  segmenter,
		attributor: attributor,
		logger:     logger,
	}
}

// CreateReport registers a queued run and returns its identifier. The
// caller is responsible for enqueueing the matching ReportJob.
func (s *ReportService) CreateReport(ctx context.Context, input ports.CreateReportInput) (*ports.ReportResult, error) {
	report := &domain.Report{
		ID:          generateReportID(),
		Status:      domain.ReportQueued,
		SubmittedAt: time.Now().UTC(),
		Summary:     domain.ReportSummary{RecordsIn: len(input.Rows)},
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		s.logger.Error().Err(err).Msg("failed to register report")
		return nil, err
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Int("rows", len(input.Rows)).
		Msg("report accepted")

	return &ports.ReportResult{ReportID: report.ID, Status: string(report.Status)}, nil
}

// GetReport returns the run metadata and summary.
func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	return s.repo.FindReportByID(ctx, id)
}

// ListRows returns one page of the report's state-mileage rows in their
// original emission order.
func (s *ReportService) ListRows(ctx context.Context, input ports.ListRowsInput) (*ports.RowsPage, error) {
	if _, err := s.repo.FindReportByID(ctx, input.ReportID); err != nil {
		return nil, err
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 || limit > maxRowsPageSize {
		limit = maxRowsPageSize
	}

	rows, total, err := s.repo.ListRows(ctx, ports.RowsFilter{
		ReportID: input.ReportID,
		State:    input.State,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.RowsPage{
		Rows:       rows,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Run executes one queued report job end to end. Input-contract violations
// fail the run; per-leg resolver failures are already contained to sentinel
// rows by the attribution engine and never fail it.
func (s *ReportService) Run(ctx context.Context, job ports.ReportJob) error {
	started := time.Now().UTC()
	report, err := s.repo.FindReportByID(ctx, job.ReportID)
	if err != nil {
		return fmt.Errorf("load report %s: %w", job.ReportID, err)
	}
	report.Status = domain.ReportRunning
	report.StartedAt = started
	if err := s.repo.UpdateReport(ctx, report); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}

	summary, runErr := s.runPipeline(ctx, report, job.Input)
	report.Summary = summary
	report.CompletedAt = time.Now().UTC()
	if runErr != nil {
		report.Status = domain.ReportFailed
		report.Error = runErr.Error()
	} else {
		report.Status = domain.ReportCompleted
	}

	metrics.ReportDuration.WithLabelValues(string(report.Status)).
		Observe(report.CompletedAt.Sub(started).Seconds())

	if err := s.repo.UpdateReport(ctx, report); err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("status", string(report.Status)).
		Int("groups", summary.Groups).
		Int("rows", summary.RowsEmitted).
		Int("error_rows", summary.ErrorRows).
		Msg("report run finished")
	return runErr
}

func (s *ReportService) runPipeline(ctx context.Context, report *domain.Report, input ports.CreateReportInput) (domain.ReportSummary, error) {
	summary := domain.ReportSummary{RecordsIn: len(input.Rows)}

	records := s.normalizer.Normalize(input.Rows, input.Fleet)
	summary.RecordsKept = len(records)

	groups, err := s.segmenter.Segment(records)
	if err != nil {
		return summary, err
	}
	summary.Groups = len(groups)
	for _, g := range groups {
		summary.Legs += len(g.Legs)
		if g.HasVirtualReturn {
			summary.VirtualLegs++
			metrics.VirtualLegsTotal.Inc()
		}
		if g.NeedsReview {
			summary.ReviewGroups++
			s.logger.Warn().
				Str("report_id", report.ID).
				Int("base", g.Base).
				Str("truck", g.Truck).
				Str("trailer", g.Trailer).
				Str("reason", g.ReviewReason).
				Msg("group needs manual review")
		}
		metrics.GroupsClosedTotal.WithLabelValues(groupClosure(g)).Inc()
	}

	var pending []domain.StateMileageRow
	for _, g := range groups {
		rows, err := s.attributor.Attribute(ctx, g)
		if err != nil {
			return summary, err
		}
		for _, row := range rows {
			metrics.RowsEmittedTotal.WithLabelValues(string(row.Status)).Inc()
			if row.Status == domain.MileageFailed {
				summary.ErrorRows++
			}
		}
		summary.RowsEmitted += len(rows)

		pending = append(pending, rows...)
		if len(pending) >= rowInsertBatch {
			if err := s.repo.InsertRows(ctx, report.ID, pending); err != nil {
				return summary, fmt.Errorf("persist rows: %w", err)
			}
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		if err := s.repo.InsertRows(ctx, report.ID, pending); err != nil {
			return summary, fmt.Errorf("persist rows: %w", err)
		}
	}
	return summary, nil
}

func groupClosure(g domain.TripGroup) string {
	switch {
	case g.ReachedHome:
		return "home"
	case g.HasVirtualReturn:
		return "virtual_return"
	default:
		return "unresolved"
	}
}

// generateReportID returns a unique run identifier in the format RPT-XXXXXXXX.
func generateReportID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("RPT-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("RPT-%08X", b)
}
