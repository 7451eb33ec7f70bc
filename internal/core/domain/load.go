package domain

import (
	"fmt"
	"time"
)

// Place is a city/state pair exactly as it appears on a delivery record.
type Place struct {
	City  string `json:"city" bson:"city"`
	State string `json:"state" bson:"state"`
}

// String renders the place in the "City,ST" form the route resolver expects.
func (p Place) String() string {
	return p.City + "," + p.State
}

// LoadRecord is one normalized freight delivery. Records are immutable once
// produced by the normalizer; the engines only read them.
type LoadRecord struct {
	LoadID       string
	TripID       string // optional carrier trip number
	Truck        string
	Trailer      string
	Origin       Place // ship city/state
	Destination  Place // consignee city/state
	PickupDate   time.Time
	DeliveryDate time.Time
}

// PartitionKey identifies the (truck, trailer) stream a record belongs to.
// Segmentation never carries state across partition boundaries.
func (r LoadRecord) PartitionKey() string {
	return r.Truck + "/" + r.Trailer
}

// LegKind discriminates recorded movements from synthesized ones.
type LegKind string

const (
	LegKindReal    LegKind = "real"
	LegKindVirtual LegKind = "virtual"
)

// ReferenceID is the hierarchical identifier naming a leg's position within
// its round trip, rendered as "base.sequence" (e.g. "16.2").
type ReferenceID struct {
	Base     int `json:"base" bson:"base"`
	Sequence int `json:"sequence" bson:"sequence"`
}

func (r ReferenceID) String() string {
	return fmt.Sprintf("%d.%d", r.Base, r.Sequence)
}

// Leg is one movement inside a trip group: either a recorded load or a
// synthesized empty return toward the home hub.
type Leg struct {
	Ref          ReferenceID
	Kind         LegKind
	LoadID       string // empty on virtual legs
	TripID       string
	Truck        string
	Trailer      string
	Origin       Place
	Destination  Place
	PickupDate   time.Time
	DeliveryDate time.Time

	// OriginWaypoints lists additional same-state pickup stops visited after
	// Origin and before the interstate run to Destination. Empty for normal
	// legs; attribution chains the intrastate segments when present.
	OriginWaypoints []Place

	// Annotation carries human-readable context for synthesized legs,
	// e.g. the state the empty return was triggered from.
	Annotation string
}

// IsVirtual reports whether the leg was synthesized rather than recorded.
func (l Leg) IsVirtual() bool {
	return l.Kind == LegKindVirtual
}

// Stops returns the ordered chain of places the leg visits before its
// destination: origin first, then any chained origin waypoints.
func (l Leg) Stops() []Place {
	stops := make([]Place, 0, 1+len(l.OriginWaypoints))
	stops = append(stops, l.Origin)
	stops = append(stops, l.OriginWaypoints...)
	return stops
}

// TripGroup is a maximal run of consecutive legs for one truck/trailer
// between two returns to the home state, or up to a forced closure.
// Legs share the group's base reference and carry contiguous sequence
// numbers starting at 1. Groups are constructed once and never mutated.
type TripGroup struct {
	Base    int
	Truck   string
	Trailer string
	Legs    []Leg

	// ReachedHome is true when the final recorded leg delivered into the
	// home state.
	ReachedHome bool

	// HasVirtualReturn is true when the group was completed with a
	// synthesized empty return leg.
	HasVirtualReturn bool

	// NeedsReview marks groups that closed away from home without
	// qualifying for a virtual return. Not an error: emitted for manual
	// review downstream.
	NeedsReview  bool
	ReviewReason string
}

// LastLeg returns the final leg of the group. Groups are never empty.
func (g TripGroup) LastLeg() Leg {
	return g.Legs[len(g.Legs)-1]
}
