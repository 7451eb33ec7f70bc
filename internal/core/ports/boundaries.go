package ports

// StateBoundaries answers intersection-length queries against the static
// state polygon dataset. Implementations are read-only after load and
// shared by all concurrent attribution calls.
type StateBoundaries interface {
	// StateMiles apportions the path's length across the states it
	// crosses, returning miles keyed by state code. Portions outside any
	// known polygon are omitted.
	StateMiles(points []RoutePoint) (map[string]float64, error)
}
