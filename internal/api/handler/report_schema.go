package handler

import "time"

// --- Request types ---

// loadRowRequest mirrors one row of the dispatch export. Dates accept
// "2006-01-02" or "01/02/2006".
type loadRowRequest struct {
	LoadID       string `json:"load_id"       validate:"required"`
	TripID       string `json:"trip_id"`
	Truck        string `json:"truck"         validate:"required"`
	Trailer      string `json:"trailer"       validate:"required"`
	ShipCity     string `json:"ship_city"     validate:"required"`
	ShipState    string `json:"ship_state"    validate:"required,len=2"`
	ConsCity     string `json:"cons_city"     validate:"required"`
	ConsState    string `json:"cons_state"    validate:"required,len=2"`
	PickupDate   string `json:"pickup_date"   validate:"required"`
	DeliveryDate string `json:"delivery_date" validate:"required"`
}

type fleetUnitRequest struct {
	Unit    string `json:"unit" validate:"required"`
	Company string `json:"company"`
}

type createReportRequest struct {
	Rows  []loadRowRequest   `json:"rows"  validate:"required,min=1,dive"`
	Fleet []fleetUnitRequest `json:"fleet" validate:"required,min=1,dive"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal service changes.

type reportLinks struct {
	Self string `json:"self"`
	Rows string `json:"rows"`
}

type createReportResponse struct {
	ReportID string      `json:"report_id"`
	Status   string      `json:"status"`
	Links    reportLinks `json:"_links"`
}

type reportSummaryResponse struct {
	RecordsIn    int `json:"records_in"`
	RecordsKept  int `json:"records_kept"`
	Groups       int `json:"groups"`
	Legs         int `json:"legs"`
	VirtualLegs  int `json:"virtual_legs"`
	ReviewGroups int `json:"review_groups"`
	RowsEmitted  int `json:"rows_emitted"`
	ErrorRows    int `json:"error_rows"`
}

type getReportResponse struct {
	ReportID    string                `json:"report_id"`
	Status      string                `json:"status"`
	SubmittedAt time.Time             `json:"submitted_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Summary     reportSummaryResponse `json:"summary"`
	Error       string                `json:"error,omitempty"`
	Links       reportLinks           `json:"_links"`
}

// mileageRowResponse is one state crossed by one leg. Miles renders as a
// number string or the CALCULATION_FAILED sentinel so report consumers can
// filter failed rows.
type mileageRowResponse struct {
	Ref          string    `json:"ref"`
	LoadID       string    `json:"load_id,omitempty"`
	Truck        string    `json:"truck"`
	Trailer      string    `json:"trailer"`
	PickupDate   time.Time `json:"pickup_date"`
	DeliveryDate time.Time `json:"delivery_date"`
	State        string    `json:"state"`
	Miles        string    `json:"miles"`
	Status       string    `json:"status"`
	Detail       string    `json:"detail,omitempty"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listRowsResponse struct {
	Data       []mileageRowResponse `json:"data"`
	Pagination paginationResponse   `json:"pagination"`
}
