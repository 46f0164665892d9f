package models

// TransportType is the transport category of a departure
type TransportType string

const (
	TransportSuburban TransportType = "suburban"
	TransportSubway   TransportType = "subway"
	TransportTram     TransportType = "tram"
	TransportBus      TransportType = "bus"
	TransportFerry    TransportType = "ferry"
	TransportExpress  TransportType = "express"
	TransportRegional TransportType = "regional"
	TransportUnknown  TransportType = "unknown"
)

// DefaultIcon is used when no departure is known
const DefaultIcon = "mdi:bus-clock"

// TransportTypes lists the configurable categories in display order
var TransportTypes = []TransportType{
	TransportSuburban,
	TransportSubway,
	TransportTram,
	TransportBus,
	TransportFerry,
	TransportExpress,
	TransportRegional,
}

var transportIcons = map[TransportType]string{
	TransportSuburban: "mdi:train",
	TransportSubway:   "mdi:subway",
	TransportTram:     "mdi:tram",
	TransportBus:      "mdi:bus",
	TransportFerry:    "mdi:ferry",
	TransportExpress:  "mdi:train-car",
	TransportRegional: "mdi:train",
}

// TransportTypeFromClass maps an EFA product class to a transport type.
//
// EFA classes: 0 train, 1 S-Bahn, 2 U-Bahn, 3 Stadtbahn, 4 tram,
// 5 city bus, 6 regional bus, 7 express bus, 8 cable car, 9 ship,
// 10 on-demand, 11 other, 13 regional train, 14 national train,
// 15 international train, 16 high speed, 17 rail replacement, 19 citizen bus.
func TransportTypeFromClass(class int) TransportType {
	switch class {
	case 0, 13:
		return TransportRegional
	case 1:
		return TransportSuburban
	case 2:
		return TransportSubway
	case 3, 4:
		return TransportTram
	case 5, 6, 7, 10, 17, 19:
		return TransportBus
	case 9:
		return TransportFerry
	case 14, 15, 16:
		return TransportExpress
	default:
		return TransportUnknown
	}
}

// Icon returns the icon identifier for the transport type
func (t TransportType) Icon() string {
	if icon, ok := transportIcons[t]; ok {
		return icon
	}
	return DefaultIcon
}

// ParseTransportType parses a configured transport type name
func ParseTransportType(s string) (TransportType, bool) {
	for _, t := range TransportTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
