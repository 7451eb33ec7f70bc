package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

// NormalizerConfig bounds which dispatch rows enter the pipeline.
type NormalizerConfig struct {
	// WindowFrom/WindowTo restrict records to a reporting period by pickup
	// date. Zero values disable the bound.
	WindowFrom time.Time
	WindowTo   time.Time
}

// Normalizer turns raw dispatch export rows into the filtered, sorted
// LoadRecord stream the segmentation contract requires: company-owned
// tractors only, interstate loads only, sorted by
// (truck, trailer, pickup date, load id).
type Normalizer struct {
	cfg    NormalizerConfig
	logger zerolog.Logger
}

func NewNormalizer(cfg NormalizerConfig, logger zerolog.Logger) *Normalizer {
	return &Normalizer{cfg: cfg, logger: logger}
}

// tractor unit numbers are four digits; five-digit permit cards carry the
// unit in their leading four digits.
const unitPrefixLen = 4

// dateLayouts accepted on raw rows, tried in order.
var dateLayouts = []string{"2006-01-02", "01/02/2006", time.RFC3339}

// Normalize filters and sorts the submitted rows. Rows that cannot enter
// the ledger (intrastate, owner-operator, unparseable dates, unknown unit)
// are dropped with a log line, not surfaced as errors: only the shape of
// data that survives filtering is contractual.
func (n *Normalizer) Normalize(rows []ports.RawLoadRow, fleet []ports.FleetUnit) []domain.LoadRecord {
	company := make(map[string]string, len(fleet))
	for _, u := range fleet {
		unit := strings.TrimSpace(u.Unit)
		if unit != "" && strings.TrimSpace(u.Company) != "" {
			company[unit] = strings.TrimSpace(u.Company)
		}
	}

	records := make([]domain.LoadRecord, 0, len(rows))
	for _, row := range rows {
		rec, reason := n.normalizeRow(row, company)
		if reason != "" {
			n.logger.Debug().
				Str("load_id", strings.TrimSpace(row.LoadID)).
				Str("reason", reason).
				Msg("row dropped")
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Truck != b.Truck {
			return a.Truck < b.Truck
		}
		if a.Trailer != b.Trailer {
			return a.Trailer < b.Trailer
		}
		if !a.PickupDate.Equal(b.PickupDate) {
			return a.PickupDate.Before(b.PickupDate)
		}
		return lessLoadID(a.LoadID, b.LoadID)
	})

	n.logger.Info().
		Int("rows_in", len(rows)).
		Int("records_out", len(records)).
		Msg("normalization completed")
	return records
}

func (n *Normalizer) normalizeRow(row ports.RawLoadRow, company map[string]string) (domain.LoadRecord, string) {
	truck := strings.TrimSpace(row.Truck)
	trailer := strings.TrimSpace(row.Trailer)
	origin := domain.Place{
		City:  strings.TrimSpace(row.ShipCity),
		State: strings.ToUpper(strings.TrimSpace(row.ShipState)),
	}
	dest := domain.Place{
		City:  strings.TrimSpace(row.ConsCity),
		State: strings.ToUpper(strings.TrimSpace(row.ConsState)),
	}

	switch {
	case truck == "" || trailer == "":
		return domain.LoadRecord{}, "missing truck or trailer"
	case origin.City == "" || origin.State == "" || dest.City == "" || dest.State == "":
		return domain.LoadRecord{}, "missing origin or destination"
	case origin.State == dest.State:
		return domain.LoadRecord{}, "intrastate"
	case isOwnerOperator(truck):
		return domain.LoadRecord{}, "owner-operator truck"
	case !isNumeric(truck):
		return domain.LoadRecord{}, "non-numeric truck"
	}

	unit := truck
	if len(unit) > unitPrefixLen {
		unit = unit[:unitPrefixLen]
	}
	if _, owned := company[unit]; !owned {
		return domain.LoadRecord{}, "not company-owned"
	}

	pickup, ok := parseDate(row.PickupDate)
	if !ok {
		return domain.LoadRecord{}, "unparseable pickup date"
	}
	delivery, ok := parseDate(row.DeliveryDate)
	if !ok {
		return domain.LoadRecord{}, "unparseable delivery date"
	}
	if !n.cfg.WindowFrom.IsZero() && pickup.Before(n.cfg.WindowFrom) {
		return domain.LoadRecord{}, "before reporting window"
	}
	if !n.cfg.WindowTo.IsZero() && pickup.After(n.cfg.WindowTo) {
		return domain.LoadRecord{}, "after reporting window"
	}

	return domain.LoadRecord{
		LoadID:       strings.TrimSpace(row.LoadID),
		TripID:       strings.TrimSpace(row.TripID),
		Truck:        truck,
		Trailer:      trailer,
		Origin:       origin,
		Destination:  dest,
		PickupDate:   pickup,
		DeliveryDate: delivery,
	}, ""
}

// isOwnerOperator matches the dispatch convention of tagging leased trucks
// with an OP token ("OP", "1234 OP", ...).
func isOwnerOperator(truck string) bool {
	for _, field := range strings.Fields(strings.ToUpper(truck)) {
		if field == "OP" {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// lessLoadID orders load ids numerically when both parse, falling back to
// a string compare for non-numeric ids. Keeps re-runs deterministic when
// pickup dates tie.
func lessLoadID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
