package handler

import (
	"time"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

func toCreateReportInput(req createReportRequest) ports.CreateReportInput {
	rows := make([]ports.RawLoadRow, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = ports.RawLoadRow{
			LoadID:       r.LoadID,
			TripID:       r.TripID,
			Truck:        r.Truck,
			Trailer:      r.Trailer,
			ShipCity:     r.ShipCity,
			ShipState:    r.ShipState,
			ConsCity:     r.ConsCity,
			ConsState:    r.ConsState,
			PickupDate:   r.PickupDate,
			DeliveryDate: r.DeliveryDate,
		}
	}
	fleet := make([]ports.FleetUnit, len(req.Fleet))
	for i, f := range req.Fleet {
		fleet[i] = ports.FleetUnit{Unit: f.Unit, Company: f.Company}
	}
	return ports.CreateReportInput{Rows: rows, Fleet: fleet}
}

func linksFor(reportID string) reportLinks {
	return reportLinks{
		Self: "/v1/reports/" + reportID,
		Rows: "/v1/reports/" + reportID + "/rows",
	}
}

func toGetReportResponse(r *domain.Report) getReportResponse {
	return getReportResponse{
		ReportID:    r.ID,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
		StartedAt:   timeOrNil(r.StartedAt),
		CompletedAt: timeOrNil(r.CompletedAt),
		Summary: reportSummaryResponse{
			RecordsIn:    r.Summary.RecordsIn,
			RecordsKept:  r.Summary.RecordsKept,
			Groups:       r.Summary.Groups,
			Legs:         r.Summary.Legs,
			VirtualLegs:  r.Summary.VirtualLegs,
			ReviewGroups: r.Summary.ReviewGroups,
			RowsEmitted:  r.Summary.RowsEmitted,
			ErrorRows:    r.Summary.ErrorRows,
		},
		Error: r.Error,
		Links: linksFor(r.ID),
	}
}

func toListRowsResponse(page *ports.RowsPage) listRowsResponse {
	data := make([]mileageRowResponse, len(page.Rows))
	for i, row := range page.Rows {
		data[i] = mileageRowResponse{
			Ref:          row.Ref.String(),
			LoadID:       row.LoadID,
			Truck:        row.Truck,
			Trailer:      row.Trailer,
			PickupDate:   row.PickupDate,
			DeliveryDate: row.DeliveryDate,
			State:        row.State,
			Miles:        row.MilesLabel(),
			Status:       string(row.Status),
			Detail:       row.Detail,
		}
	}
	return listRowsResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
