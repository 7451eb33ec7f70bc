package service

import (
	"testing"
	"time"

	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func rawRow(id, truck, trailer, oCity, oState, dCity, dState, pickup, deliver string) ports.RawLoadRow {
	return ports.RawLoadRow{
		LoadID:       id,
		Truck:        truck,
		Trailer:      trailer,
		ShipCity:     oCity,
		ShipState:    oState,
		ConsCity:     dCity,
		ConsState:    dState,
		PickupDate:   pickup,
		DeliveryDate: deliver,
	}
}

var testFleet = []ports.FleetUnit{
	{Unit: "1462", Company: "ANSH Freight"},
	{Unit: "1001", Company: "ANSH Freight"},
	{Unit: "2002", Company: ""}, // owner-operator: no company
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

func TestNormalize_KeepsCompanyInterstateLoads(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, discardLogger)
	rows := []ports.RawLoadRow{
		rawRow("1", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03"),
	}

	records := n.Normalize(rows, testFleet)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Origin.String() != "Fontana,CA" || rec.Destination.String() != "Phoenix,AZ" {
		t.Errorf("places wrong: %s -> %s", rec.Origin, rec.Destination)
	}
	if rec.PickupDate.IsZero() || rec.DeliveryDate.IsZero() {
		t.Error("dates must be parsed")
	}
}

func TestNormalize_DropsFilteredRows(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, discardLogger)

	cases := []struct {
		name string
		row  ports.RawLoadRow
	}{
		{"intrastate", rawRow("1", "1462", "286", "Fontana", "CA", "Stockton", "CA", "2026-01-02", "2026-01-03")},
		{"owner-operator token", rawRow("2", "1462 OP", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03")},
		{"non-numeric truck", rawRow("3", "TRK-1", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03")},
		{"unknown unit", rawRow("4", "9999", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03")},
		{"unit without company", rawRow("5", "2002", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03")},
		{"missing trailer", rawRow("6", "1462", "", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03")},
		{"missing destination", rawRow("7", "1462", "286", "Fontana", "CA", "", "AZ", "2026-01-02", "2026-01-03")},
		{"bad pickup date", rawRow("8", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "not-a-date", "2026-01-03")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := n.Normalize([]ports.RawLoadRow{tc.row}, testFleet)
			if len(records) != 0 {
				t.Fatalf("expected row to be dropped, got %d records", len(records))
			}
		})
	}
}

func TestNormalize_PermitCardUnitPrefix(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, discardLogger)
	// five-digit permit card: leading four digits name the unit
	rows := []ports.RawLoadRow{
		rawRow("1", "14621", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03"),
	}

	records := n.Normalize(rows, testFleet)
	if len(records) != 1 {
		t.Fatalf("expected permit-card unit to match its 4-digit prefix, got %d records", len(records))
	}
	if records[0].Truck != "14621" {
		t.Errorf("record must keep the full truck number, got %s", records[0].Truck)
	}
}

func TestNormalize_AcceptsBothDateLayouts(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, discardLogger)
	rows := []ports.RawLoadRow{
		rawRow("1", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "01/02/2026", "01/03/2026"),
	}

	records := n.Normalize(rows, testFleet)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	if !records[0].PickupDate.Equal(want) {
		t.Errorf("expected pickup %v, got %v", want, records[0].PickupDate)
	}
}

func TestNormalize_ReportingWindow(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{
		WindowFrom: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		WindowTo:   time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
	}, discardLogger)

	rows := []ports.RawLoadRow{
		rawRow("1", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "2025-12-30", "2026-01-02"),
		rawRow("2", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-02-10", "2026-02-11"),
		rawRow("3", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-04-01", "2026-04-02"),
	}

	records := n.Normalize(rows, testFleet)
	if len(records) != 1 {
		t.Fatalf("expected only the in-window row, got %d", len(records))
	}
	if records[0].LoadID != "2" {
		t.Errorf("expected load 2, got %s", records[0].LoadID)
	}
}

// ---------------------------------------------------------------------------
// Sorting
// ---------------------------------------------------------------------------

func TestNormalize_SortsForSegmentation(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, discardLogger)
	rows := []ports.RawLoadRow{
		rawRow("10", "1462", "286", "Fontana", "CA", "Phoenix", "AZ", "2026-01-05", "2026-01-06"),
		rawRow("9", "1001", "55", "Fontana", "CA", "Phoenix", "AZ", "2026-01-02", "2026-01-03"),
		rawRow("2", "1462", "286", "Phoenix", "AZ", "Fontana", "CA", "2026-01-03", "2026-01-04"),
		// same truck/trailer/pickup as load 10: numeric load-id order breaks the tie
		rawRow("3", "1462", "286", "Fontana", "CA", "Las Vegas", "NV", "2026-01-05", "2026-01-06"),
	}

	records := n.Normalize(rows, testFleet)
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	wantOrder := []string{"9", "2", "3", "10"}
	for i, want := range wantOrder {
		if records[i].LoadID != want {
			got := make([]string, len(records))
			for j, r := range records {
				got[j] = r.LoadID
			}
			t.Fatalf("position %d: expected load %s, got %s (full order: %v)", i, want, records[i].LoadID, got)
		}
	}
}
