package model

// Snapshot holds the observable booking fields as read from an airline's
// web surface at one point in time. Empty fields mean "not visible on the
// page", never "cleared".
type Snapshot struct {
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flight_number,omitempty"`
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	PassengerName string `json:"passenger_name,omitempty"`
	Gate          string `json:"gate,omitempty"`
	Terminal      string `json:"terminal,omitempty"`
	Seat          string `json:"seat,omitempty"`
	Cabin         string `json:"cabin,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Empty reports whether all three headline fields are missing, which is
// the signal that extraction produced nothing usable.
func (s Snapshot) Empty() bool {
	return s.FlightNumber == "" && s.Origin == "" && s.Destination == ""
}
