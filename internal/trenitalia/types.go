package trenitalia

// Wire model for the Trenitalia search API. Field names follow the
// upstream JSON. Grids/services/offers are display-only payload: the
// monitor never filters or dedups on them, but they are kept so the
// solutions proxy endpoint returns complete responses.

// SearchRequest is one search query for a single calendar day.
// Immutable once built; see BuildSearchRequest.
type SearchRequest struct {
	DepartureLocationID   int                   `json:"departureLocationId"`
	ArrivalLocationID     int                   `json:"arrivalLocationId"`
	DepartureTime         string                `json:"departureTime"`
	Adults                int                   `json:"adults"`
	Children              int                   `json:"children"`
	Criteria              Criteria              `json:"criteria"`
	AdvancedSearchRequest AdvancedSearchRequest `json:"advancedSearchRequest"`
}

type Criteria struct {
	FrecceOnly    bool   `json:"frecceOnly"`
	RegionalOnly  bool   `json:"regionalOnly"`
	IntercityOnly bool   `json:"intercityOnly"`
	TourismOnly   bool   `json:"tourismOnly"`
	NoChanges     bool   `json:"noChanges"`
	Order         string `json:"order"`
	Offset        int    `json:"offset"`
	Limit         int    `json:"limit"`
}

type AdvancedSearchRequest struct {
	BestFare   bool `json:"bestFare"`
	BikeFilter bool `json:"bikeFilter"`
}

// SearchResponse is the upstream reply. The monitor only interprets
// Solutions; the remaining fields pass through untouched.
type SearchResponse struct {
	SearchID            string           `json:"searchId"`
	CartID              string           `json:"cartId"`
	HighlightedMessages []any            `json:"highlightedMessages"`
	Solutions           []TicketSolution `json:"solutions"`
	MinimumPrices       []any            `json:"minimumPrices"`
}

// TicketSolution is one candidate itinerary.
type TicketSolution struct {
	Solution        Journey      `json:"solution"`
	Grids           []Grid       `json:"grids,omitempty"`
	Messages        []string     `json:"messages,omitempty"`
	CO2Emission     *CO2Emission `json:"co2Emission,omitempty"`
	NextDaySolution bool         `json:"nextDaySolution"`
}

// LeadTrainName returns the display name of the first segment, or "" when
// the journey has no segments. This name is the deduplication identity:
// two solutions count as the same notified journey when their lead segment
// names match, regardless of downstream segments or price.
func (t TicketSolution) LeadTrainName() string {
	if len(t.Solution.Trains) == 0 {
		return ""
	}
	return t.Solution.Trains[0].Name
}

type Journey struct {
	ID            string  `json:"id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Duration      string  `json:"duration"`
	Status        string  `json:"status"`
	Trains        []Train `json:"trains"`
	Price         *Price  `json:"price,omitempty"`
}

type Train struct {
	Description   string `json:"description"`
	TrainCategory string `json:"trainCategory"`
	Acronym       string `json:"acronym"`
	Denomination  string `json:"denomination"`
	Name          string `json:"name"`
	LogoID        string `json:"logoId"`
	Urban         bool   `json:"urban"`
}

type Price struct {
	Currency       *string  `json:"currency,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	OriginalAmount *float64 `json:"originalAmount,omitempty"`
	Indicative     *bool    `json:"indicative,omitempty"`
}

type CO2Emission struct {
	SummaryTitle       string            `json:"summaryTitle"`
	SummaryDescription string            `json:"summaryDescription"`
	VehicleDetails     []VehicleEmission `json:"vehicleDetails"`
}

type VehicleEmission struct {
	Type        string  `json:"type"`
	KgEmissions float64 `json:"kgEmissions"`
}

type Grid struct {
	ID                     string        `json:"id"`
	Summaries              []GridSummary `json:"summaries,omitempty"`
	SelectedOfferID        *string       `json:"selectedOfferId"`
	SelectedServiceID      *string       `json:"selectedServiceId"`
	Services               []Service     `json:"services,omitempty"`
	InfoMessages           []string      `json:"infoMessages,omitempty"`
	CanShowSeatMap         bool          `json:"canShowSeatMap"`
	CollapsedVisualization bool          `json:"collapsedVisualization"`
	Regional               bool          `json:"regional"`
}

type GridSummary struct {
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	Duration              string  `json:"duration"`
	HighlightedMessage    *string `json:"highlightedMessage"`
	Urban                 bool    `json:"urban"`
	VehicleInfo           *string `json:"vehicleInfo"`
	DepartureLocationName string  `json:"departureLocationName"`
	ArrivalLocationName   string  `json:"arrivalLocationName"`
	DepartureTime         string  `json:"departureTime"`
	ArrivalTime           string  `json:"arrivalTime"`
	TrainInfo             Train   `json:"trainInfo"`
	BdoOrigin             string  `json:"bdoOrigin"`
	ShowInfomobilityLink  bool    `json:"showInfomobilityLink"`
}

type Service struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	ShortName           string  `json:"shortName"`
	GroupName           string  `json:"groupName"`
	Description         *string `json:"description"`
	DescriptionStandard string  `json:"descriptionStandard"`
	Offers              []Offer `json:"offers,omitempty"`
	MinPrice            *Price  `json:"minPrice,omitempty"`
	BestOfferID         *string `json:"bestOfferId"`
	ExtendedName        *string `json:"extendedName"`
	DescriptionKey      string  `json:"descriptionKey"`
}

type Offer struct {
	OfferID         int      `json:"offerId"`
	ServiceID       int      `json:"serviceId"`
	ServiceName     string   `json:"serviceName"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           *Price   `json:"price,omitempty"`
	AvailableAmount int      `json:"availableAmount"`
	Status          string   `json:"status"`
	OfferKeys       []string `json:"offerKeys,omitempty"`
}
