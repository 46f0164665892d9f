package api

const (
	// BaseURL is the base URL of the RVV EFA installation
	BaseURL = "https://efa.rvv.de/efa"

	// EndpointDepartureMonitor returns the next departures at a stop
	// Required params: mode, outputFormat, type_dm, useRealtime, name_dm
	EndpointDepartureMonitor = "/XML_DM_REQUEST"

	// EndpointStopFinder searches for stops by name
	// Required params: outputFormat, type_sf, name_sf
	EndpointStopFinder = "/XML_STOPFINDER_REQUEST"
)

// Fixed query parameter values shared by all requests
const (
	OutputFormat     = "rapidJSON"
	CoordinateFormat = "WGS84[dd.ddddd]"
)
