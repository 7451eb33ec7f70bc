package service

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func defaultSegmenter() *SegmentationService {
	return NewSegmentationService(SegmentationConfig{
		HomeState:           "CA",
		VirtualReturnStates: []string{"AZ", "NV"},
		HubCity:             "Fontana",
		GapThresholdDays:    3,
		LookaheadWindow:     4,
	}, discardLogger)
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func load(id, truck, trailer, oCity, oState, dCity, dState string, pickup, deliver int) domain.LoadRecord {
	return domain.LoadRecord{
		LoadID:       id,
		Truck:        truck,
		Trailer:      trailer,
		Origin:       domain.Place{City: oCity, State: oState},
		Destination:  domain.Place{City: dCity, State: dState},
		PickupDate:   day(pickup),
		DeliveryDate: day(deliver),
	}
}

func refs(g domain.TripGroup) []string {
	out := make([]string, len(g.Legs))
	for i, l := range g.Legs {
		out[i] = l.Ref.String()
	}
	return out
}

func assertRefs(t *testing.T, g domain.TripGroup, want ...string) {
	t.Helper()
	got := refs(g)
	if len(got) != len(want) {
		t.Fatalf("expected refs %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected refs %v, got %v", want, got)
		}
	}
}

// ---------------------------------------------------------------------------
// Round-trip detection
// ---------------------------------------------------------------------------

func TestSegment_HomeClosureAndVirtualReturn(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("101", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", 2, 3),
		load("102", "1462", "286", "Phoenix", "AZ", "Fontana", "CA", 4, 5),
		load("103", "1462", "286", "Fontana", "CA", "Las Vegas", "NV", 6, 7),
		load("104", "1462", "286", "Las Vegas", "NV", "El Mirage", "AZ", 8, 9),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	first := groups[0]
	assertRefs(t, first, "1.1", "1.2")
	if !first.ReachedHome {
		t.Error("first group must close on the home delivery")
	}
	if first.HasVirtualReturn || first.NeedsReview {
		t.Error("home closure must not synthesize a return or flag review")
	}

	second := groups[1]
	assertRefs(t, second, "2.1", "2.2", "2.3")
	if !second.HasVirtualReturn {
		t.Fatal("trip stranded in AZ must gain a virtual return")
	}
	v := second.LastLeg()
	if !v.IsVirtual() {
		t.Fatal("final leg must be the synthesized return")
	}
	if v.Origin.String() != "El Mirage,AZ" {
		t.Errorf("virtual origin: expected El Mirage,AZ, got %s", v.Origin.String())
	}
	if v.Destination.String() != "Fontana,CA" {
		t.Errorf("virtual destination: expected Fontana,CA, got %s", v.Destination.String())
	}
	if v.LoadID != "" {
		t.Errorf("virtual leg must carry no load id, got %q", v.LoadID)
	}
	if !v.PickupDate.Equal(day(9)) || !v.DeliveryDate.Equal(day(9)) {
		t.Error("virtual leg dates must carry over from the stranding delivery")
	}
}

func TestSegment_MultiLegTripSingleGroup(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("201", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2),
		load("202", "1001", "55", "Phoenix", "AZ", "Las Vegas", "NV", 3, 4),
		load("203", "1001", "55", "Las Vegas", "NV", "Ontario", "CA", 5, 6),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	assertRefs(t, groups[0], "1.1", "1.2", "1.3")
	if !groups[0].ReachedHome {
		t.Error("group must be closed by the home delivery")
	}
}

// ---------------------------------------------------------------------------
// Gap rule
// ---------------------------------------------------------------------------

func TestSegment_GapForcesClosure(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("301", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2),
		// 5 idle days, over the 3-day threshold
		load("302", "1001", "55", "Tucson", "AZ", "El Paso", "TX", 7, 8),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if !groups[0].HasVirtualReturn {
		t.Error("gap-closed group stranded in AZ must gain a virtual return")
	}
	assertRefs(t, groups[0], "1.1", "1.2")
	assertRefs(t, groups[1], "2.1")
	if !groups[1].NeedsReview {
		t.Error("second group strands in TX and must be flagged")
	}
}

func TestSegment_GapAtThresholdDoesNotClose(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("311", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2),
		// exactly 3 idle days: threshold is exclusive
		load("312", "1001", "55", "Phoenix", "AZ", "Ontario", "CA", 5, 6),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	assertRefs(t, groups[0], "1.1", "1.2")
}

func TestSegment_LookaheadSuppressesVirtualReturn(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("321", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2),
		// gap closes the group above, but this leg delivers home within
		// the lookahead window, so no return is synthesized
		load("322", "1001", "55", "Phoenix", "AZ", "Fontana", "CA", 10, 11),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].HasVirtualReturn {
		t.Error("virtual return must be suppressed when home shows up in the lookahead")
	}
	if !groups[0].NeedsReview {
		t.Error("suppressed group still closed away from home and must be flagged")
	}
}

// ---------------------------------------------------------------------------
// Review flagging
// ---------------------------------------------------------------------------

func TestSegment_StrandOutsideReturnStatesNeedsReview(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("401", "1001", "55", "Fontana", "CA", "Dallas", "TX", 1, 3),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.HasVirtualReturn {
		t.Error("TX is not a virtual-return state")
	}
	if !g.NeedsReview {
		t.Error("group stranded outside the return states must be flagged")
	}
	if g.ReviewReason == "" {
		t.Error("flagged group must carry a reason")
	}
}

// ---------------------------------------------------------------------------
// Base numbering across partitions
// ---------------------------------------------------------------------------

func TestSegment_BaseContinuesAcrossPartitions(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("501", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2),
		load("502", "1001", "55", "Phoenix", "AZ", "Ontario", "CA", 3, 4),
		load("503", "2002", "77", "Fontana", "CA", "Las Vegas", "NV", 1, 2),
	}

	groups, err := svc.Segment(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Base != 1 {
		t.Errorf("first group base: expected 1, got %d", groups[0].Base)
	}
	if groups[1].Base != 2 {
		t.Errorf("base must continue across partitions: expected 2, got %d", groups[1].Base)
	}
	if groups[1].Truck != "2002" {
		t.Errorf("second group truck: expected 2002, got %s", groups[1].Truck)
	}
}

// ---------------------------------------------------------------------------
// Contract validation
// ---------------------------------------------------------------------------

func TestSegment_UnsortedPickupDatesRejected(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("601", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 5, 6),
		load("602", "1001", "55", "Phoenix", "AZ", "Ontario", "CA", 2, 3),
	}

	_, err := svc.Segment(records)
	if !errors.Is(err, domain.ErrUnsortedRecords) {
		t.Fatalf("expected ErrUnsortedRecords, got %v", err)
	}
}

func TestSegment_PartitionReappearanceRejected(t *testing.T) {
	svc := defaultSegmenter()
	records := []domain.LoadRecord{
		load("611", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2),
		load("612", "2002", "77", "Fontana", "CA", "Las Vegas", "NV", 1, 2),
		load("613", "1001", "55", "Phoenix", "AZ", "Ontario", "CA", 3, 4),
	}

	_, err := svc.Segment(records)
	if !errors.Is(err, domain.ErrUnsortedRecords) {
		t.Fatalf("expected ErrUnsortedRecords, got %v", err)
	}
}

func TestSegment_MissingFieldRejected(t *testing.T) {
	svc := defaultSegmenter()
	rec := load("621", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", 1, 2)
	rec.Destination.City = ""

	_, err := svc.Segment([]domain.LoadRecord{rec})
	if !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	svc := defaultSegmenter()
	groups, err := svc.Segment(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
