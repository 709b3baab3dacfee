package trenitalia

import "testing"

func TestBuildSearchRequestDefaults(t *testing.T) {
	t.Parallel()
	req := BuildSearchRequest("2024-06-01", RouteConfig{})

	if req.DepartureLocationID != DefaultDepartureLocationID {
		t.Fatalf("DepartureLocationID = %d, want default %d", req.DepartureLocationID, DefaultDepartureLocationID)
	}
	if req.ArrivalLocationID != DefaultArrivalLocationID {
		t.Fatalf("ArrivalLocationID = %d, want default %d", req.ArrivalLocationID, DefaultArrivalLocationID)
	}
	if req.DepartureTime != "2024-06-01" {
		t.Fatalf("DepartureTime = %q", req.DepartureTime)
	}
	if req.Adults != 1 || req.Children != 0 {
		t.Fatalf("passengers = %d adults, %d children", req.Adults, req.Children)
	}

	c := req.Criteria
	if c.FrecceOnly || c.RegionalOnly || c.IntercityOnly || c.TourismOnly {
		t.Fatalf("criteria category flags must all be false: %+v", c)
	}
	if !c.NoChanges {
		t.Fatal("NoChanges must be true")
	}
	if c.Order != "DEPARTURE_DATE" {
		t.Fatalf("Order = %q", c.Order)
	}
	if c.Offset != 0 || c.Limit != 100 {
		t.Fatalf("pagination = offset %d, limit %d", c.Offset, c.Limit)
	}
	if req.AdvancedSearchRequest.BestFare || req.AdvancedSearchRequest.BikeFilter {
		t.Fatalf("advanced options must be false: %+v", req.AdvancedSearchRequest)
	}
}

func TestBuildSearchRequestRouteOverrides(t *testing.T) {
	t.Parallel()
	req := BuildSearchRequest("2024-06-01", RouteConfig{DepartureLocationID: 111, ArrivalLocationID: 222})
	if req.DepartureLocationID != 111 || req.ArrivalLocationID != 222 {
		t.Fatalf("route = %d -> %d, want 111 -> 222", req.DepartureLocationID, req.ArrivalLocationID)
	}
}

func TestLeadTrainName(t *testing.T) {
	t.Parallel()
	sol := TicketSolution{Solution: Journey{Trains: []Train{
		{Name: "FR 9520"},
		{Name: "REG 4021"},
	}}}
	if got := sol.LeadTrainName(); got != "FR 9520" {
		t.Fatalf("LeadTrainName = %q, want first segment name", got)
	}
	if got := (TicketSolution{}).LeadTrainName(); got != "" {
		t.Fatalf("LeadTrainName on empty journey = %q, want \"\"", got)
	}
}
