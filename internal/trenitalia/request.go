package trenitalia

// Fallback route: Roma Termini -> Milano Centrale.
const (
	DefaultDepartureLocationID = 830000219
	DefaultArrivalLocationID   = 830011145
)

// RouteConfig carries the static route overrides from configuration.
// Zero values fall back to the default location identifiers.
type RouteConfig struct {
	DepartureLocationID int
	ArrivalLocationID   int
}

// BuildSearchRequest turns a target date plus route configuration into a
// normalized search request. Pure; always produces a well-formed request.
func BuildSearchRequest(date string, route RouteConfig) SearchRequest {
	dep := route.DepartureLocationID
	if dep == 0 {
		dep = DefaultDepartureLocationID
	}
	arr := route.ArrivalLocationID
	if arr == 0 {
		arr = DefaultArrivalLocationID
	}

	return SearchRequest{
		DepartureLocationID: dep,
		ArrivalLocationID:   arr,
		DepartureTime:       date,
		Adults:              1,
		Children:            0,
		Criteria: Criteria{
			FrecceOnly:    false,
			RegionalOnly:  false,
			IntercityOnly: false,
			TourismOnly:   false,
			NoChanges:     true,
			Order:         "DEPARTURE_DATE",
			Offset:        0,
			Limit:         100,
		},
		AdvancedSearchRequest: AdvancedSearchRequest{
			BestFare:   false,
			BikeFilter: false,
		},
	}
}
