package departures

import "github.com/mobil-koeln/efa-cli/internal/models"

// Next returns the first departure of a sorted list
func Next(list models.DepartureList) (models.StopEvent, bool) {
	if len(list) == 0 {
		return models.StopEvent{}, false
	}
	return list[0], true
}
