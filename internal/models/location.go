package models

// Location represents a stop or place from stop finder results
type Location struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ShortName      string          `json:"shortName,omitempty"`
	Locality       string          `json:"locality,omitempty"`
	Type           string          `json:"type"`
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	IsBest         bool            `json:"isBest"`
	MatchQuality   int             `json:"matchQuality"`
	TransportTypes []TransportType `json:"transportTypes,omitempty"`
}

// LocationResponse represents one entry of the stop finder "locations" array
type LocationResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	DisassembledName string    `json:"disassembledName"`
	Type             string    `json:"type"`
	Coord            []float64 `json:"coord"` // [lat, lon] with coordOutputFormat=WGS84[dd.ddddd]
	IsBest           bool      `json:"isBest"`
	MatchQuality     int       `json:"matchQuality"`
	ProductClasses   []int     `json:"productClasses"`
	Parent           struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"parent"`
}

// LocationsResponse represents the stop finder response
type LocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
}

// ToLocation converts the raw response to a Location
func (r *LocationResponse) ToLocation() *Location {
	loc := &Location{
		ID:           r.ID,
		Name:         r.Name,
		ShortName:    r.DisassembledName,
		Type:         r.Type,
		IsBest:       r.IsBest,
		MatchQuality: r.MatchQuality,
	}

	if r.Parent.Type == "locality" {
		loc.Locality = r.Parent.Name
	}

	if len(r.Coord) == 2 {
		loc.Lat = r.Coord[0]
		loc.Lon = r.Coord[1]
	}

	seen := make(map[TransportType]bool)
	for _, class := range r.ProductClasses {
		tt := TransportTypeFromClass(class)
		if tt == TransportUnknown || seen[tt] {
			continue
		}
		seen[tt] = true
		loc.TransportTypes = append(loc.TransportTypes, tt)
	}

	return loc
}

// IsStop reports whether the location can be queried for departures
func (l *Location) IsStop() bool {
	return l.Type == "stop"
}
