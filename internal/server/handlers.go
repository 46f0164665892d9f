package server

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mobil-koeln/efa-cli/internal/departures"
)

// EntityState is the state of one sensor as served by the API
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated *time.Time     `json:"last_updated"`
	LastChanged *time.Time     `json:"last_changed"`
}

func newEntityState(sensor *departures.Sensor) EntityState {
	return EntityState{
		EntityID:    sensor.EntityID(),
		State:       sensor.State(),
		Attributes:  sensor.Attributes(),
		LastUpdated: timePtr(sensor.LastUpdated()),
		LastChanged: timePtr(sensor.LastChanged()),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Server) allStates() []EntityState {
	states := make([]EntityState, 0, len(s.sensors))
	for _, sensor := range s.poller.Sensors() {
		states = append(states, newEntityState(sensor))
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].EntityID < states[j].EntityID
	})
	return states
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"sensors": len(s.sensors),
	})
}

func (s *Server) handleStates(c *fiber.Ctx) error {
	return c.JSON(s.allStates())
}

func (s *Server) handleState(c *fiber.Ctx) error {
	sensor, ok := s.sensors[c.Params("entity_id")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Entity not found."})
	}
	return c.JSON(newEntityState(sensor))
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	s.poller.UpdateAll(c.UserContext())
	return c.JSON(s.allStates())
}
