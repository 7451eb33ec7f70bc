package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

const (
	collectionReports = "reports"
	collectionRows    = "state_mileage_rows"
)

// ReportRepository persists report runs and their append-only mileage rows.
type ReportRepository struct {
	reports *mongo.Collection
	rows    *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{
		reports: db.Collection(collectionReports),
		rows:    db.Collection(collectionRows),
	}
}

// rowDoc wraps a StateMileageRow with its report id and a sequence number
// preserving emission order across paginated reads.
type rowDoc struct {
	ReportID string                 `bson:"report_id"`
	Seq      int64                  `bson:"seq"`
	Row      domain.StateMileageRow `bson:",inline"`
}

// Create inserts a new report run document.
func (r *ReportRepository) CreateReport(ctx context.Context, report *domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.reports.InsertOne(ctx, report)
	return err
}

// UpdateReport replaces the run document, keyed by report id.
func (r *ReportRepository) UpdateReport(ctx context.Context, report *domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.reports.ReplaceOne(ctx, bson.M{"_id": report.ID}, report)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) FindReportByID(ctx context.Context, id string) (*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var report domain.Report
	err := r.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// InsertRows appends a batch of rows, numbering them after the report's
// current row count so emission order survives pagination.
func (r *ReportRepository) InsertRows(ctx context.Context, reportID string, rows []domain.StateMileageRow) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	base, err := r.rows.CountDocuments(ctx, bson.M{"report_id": reportID})
	if err != nil {
		return err
	}

	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		docs[i] = rowDoc{ReportID: reportID, Seq: base + int64(i), Row: row}
	}
	_, err = r.rows.InsertMany(ctx, docs)
	return err
}

// ListRows returns one page of rows in emission order plus the total count.
func (r *ReportRepository) ListRows(ctx context.Context, filter ports.RowsFilter) ([]domain.StateMileageRow, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"report_id": filter.ReportID}
	if filter.State != "" {
		query["state"] = filter.State
	}

	total, err := r.rows.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}}).
		SetSkip(int64(page-1) * int64(filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.rows.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var docs []rowDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	rows := make([]domain.StateMileageRow, len(docs))
	for i, d := range docs {
		rows[i] = d.Row
	}
	return rows, total, nil
}

// EnsureIndexes creates the indexes both collections rely on.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.rows.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "report_id", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "report_id", Value: 1}, {Key: "state", Value: 1}}},
	})
	return err
}
