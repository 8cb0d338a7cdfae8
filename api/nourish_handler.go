package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/sassy/pkg/nourish"
)

// NourishStatus reports the ingestion pipeline state.
type NourishStatus struct {
	State   string         `json:"state"`
	Queries int            `json:"queries"`
	Last    nourish.Result `json:"last"`
	Started bool           `json:"started,omitempty"`
}

func (s *Server) nourishStatus() NourishStatus {
	p := s.config.Pipeline
	return NourishStatus{
		State:   p.State().String(),
		Queries: len(p.Queries()),
		Last:    p.LastResult(),
	}
}

// handleNourishStatus handles GET /v1/nourish.
func (s *Server) handleNourishStatus(c *fiber.Ctx) error {
	if s.config.Pipeline == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "nourishment is not configured")
	}
	return c.JSON(s.nourishStatus())
}

// handleNourishStart handles POST /v1/nourish. A run already in progress
// answers 409.
func (s *Server) handleNourishStart(c *fiber.Ctx) error {
	if s.config.Pipeline == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "nourishment is not configured")
	}

	if !s.config.Pipeline.Start(s.ctx, s.config.NewMonitor()) {
		return errorJSON(c, fiber.StatusConflict, nourish.ErrAlreadyRunning.Error())
	}

	s.logger.Info("nourishment started over HTTP")
	status := s.nourishStatus()
	status.Started = true
	return c.Status(fiber.StatusAccepted).JSON(status)
}

// handleNourishStop handles DELETE /v1/nourish. The run ends after its
// current query.
func (s *Server) handleNourishStop(c *fiber.Ctx) error {
	if s.config.Pipeline == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "nourishment is not configured")
	}
	s.config.Pipeline.Stop()
	return c.Status(fiber.StatusAccepted).JSON(s.nourishStatus())
}
