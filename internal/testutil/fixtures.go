package testutil

// Sample EFA rapidJSON responses for API testing

// SampleStopEventsResponse holds three departures out of planned order.
// Bus 6 and RB51 share a planned time; bus 6 comes first.
const SampleStopEventsResponse = `{
	"version": "10.4.18.18",
	"locations": [{"id": "de:09362:12009", "name": "Regensburg, Hauptbahnhof", "type": "stop"}],
	"stopEvents": [
		{
			"location": {
				"id": "de:09362:12009:3:C",
				"name": "Hauptbahnhof",
				"properties": {"platform": "C"}
			},
			"departureTimePlanned": "2024-03-01T12:10:00Z",
			"transportation": {
				"id": "rvv:02006: :H:j24",
				"name": "Stadtbus 6",
				"number": "6",
				"disassembledName": "6",
				"product": {"id": 5, "class": 5, "name": "Stadtbus"},
				"destination": {"id": "de:09362:11020", "name": "Klinikum"}
			}
		},
		{
			"location": {
				"id": "de:09362:12009:1:A",
				"name": "Hauptbahnhof",
				"properties": {"platform": "A"}
			},
			"departureTimePlanned": "2024-03-01T12:05:00Z",
			"departureTimeEstimated": "2024-03-01T12:07:00Z",
			"transportation": {
				"id": "rvv:02001: :H:j24",
				"name": "Stadtbus 1",
				"number": "1",
				"disassembledName": "1",
				"product": {"id": 5, "class": 5, "name": "Stadtbus"},
				"destination": {"id": "de:09362:10411", "name": "Wernerwerkstraße"}
			}
		},
		{
			"location": {
				"id": "de:09362:12009:2:B",
				"name": "Hauptbahnhof",
				"properties": {}
			},
			"departureTimePlanned": "2024-03-01T12:10:00Z",
			"transportation": {
				"id": "db:ag1: :H:j24",
				"name": "Regionalbahn RB51",
				"number": "RB51",
				"disassembledName": "",
				"product": {"id": 0, "class": 0, "name": "Zug"},
				"destination": {"id": "de:09362:80000", "name": "Landshut(Bay)Hbf"}
			}
		}
	]
}`

// SampleEmptyStopEventsResponse is a valid response without departures
const SampleEmptyStopEventsResponse = `{"version": "10.4.18.18", "stopEvents": []}`

// SampleMissingStopEventsResponse is a valid object without stopEvents
const SampleMissingStopEventsResponse = `{"version": "10.4.18.18", "systemMessages": []}`

// SamplePartiallyMalformedResponse has one record without a planned time
const SamplePartiallyMalformedResponse = `{
	"stopEvents": [
		{
			"departureTimePlanned": "2024-03-01T12:10:00Z",
			"transportation": {"number": "2", "product": {"class": 5}, "destination": {"name": "Pürkelgut"}}
		},
		{
			"departureTimePlanned": "not a time",
			"transportation": {"number": "3", "product": {"class": 5}, "destination": {"name": "Burgweinting"}}
		}
	]
}`

// SampleLocationResponse is a minimal valid stop finder response
const SampleLocationResponse = `{
	"version": "10.4.18.18",
	"locations": [
		{
			"id": "de:09362:12009",
			"name": "Regensburg, Hauptbahnhof",
			"disassembledName": "Hauptbahnhof",
			"type": "stop",
			"coord": [49.01172, 12.09981],
			"isBest": true,
			"matchQuality": 950,
			"productClasses": [0, 5, 10],
			"parent": {"name": "Regensburg", "type": "locality"}
		},
		{
			"id": "de:09362:12010",
			"name": "Regensburg, Hauptbahnhof/Albertstraße",
			"disassembledName": "Hauptbahnhof/Albertstraße",
			"type": "stop",
			"coord": [49.01236, 12.09788],
			"isBest": false,
			"matchQuality": 820,
			"productClasses": [5],
			"parent": {"name": "Regensburg", "type": "locality"}
		}
	]
}`
