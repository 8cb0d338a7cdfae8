package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/storage"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RelevanceRequest is the body of PUT /v1/memories/:id/relevance.
type RelevanceRequest struct {
	Relevance float64 `json:"relevance"`
}

// CategoryRequest is the body of POST /v1/memories/:id/categories.
type CategoryRequest struct {
	Category string `json:"category"`
}

// InteractionRequest is the body of POST /v1/interactions.
type InteractionRequest struct {
	Input    string `json:"input"`
	Response string `json:"response"`
}

// RelatedResponse lists the words of a text seen in recent conversation.
type RelatedResponse struct {
	Topics []string `json:"topics"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// queryInt parses an optional positive integer query parameter.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleWriteMemory handles POST /v1/memories.
func (s *Server) handleWriteMemory(c *fiber.Ctx) error {
	var req memory.WriteParams
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "content is required")
	}

	res := s.engine.Write(c.Context(), req)
	if !res.Stored && !res.Indexed {
		return errorJSON(c, fiber.StatusInternalServerError, "memory could not be stored")
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// handleRecentMemories handles GET /v1/memories/recent?limit=N.
func (s *Server) handleRecentMemories(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", storage.DefaultLimit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.engine.Recent(c.Context(), limit))
}

// handleUpdateRelevance handles PUT /v1/memories/:id/relevance.
func (s *Server) handleUpdateRelevance(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	var req RelevanceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.engine.UpdateRelevance(c.Context(), id, req.Relevance); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errorJSON(c, fiber.StatusInternalServerError, "failed to update relevance")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAddCategory handles POST /v1/memories/:id/categories.
func (s *Server) handleAddCategory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.engine.AddCategory(c.Context(), id, req.Category); err != nil {
		switch {
		case errors.Is(err, memory.ErrEmptyCategory):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		default:
			return errorJSON(c, fiber.StatusInternalServerError, "failed to add category")
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleByCategory handles GET /v1/categories/:category?limit=N.
func (s *Server) handleByCategory(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", storage.DefaultLimit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.engine.ByCategory(c.Context(), c.Params("category"), limit))
}

// handleRecentInteractions handles GET /v1/interactions?n=N.
func (s *Server) handleRecentInteractions(c *fiber.Ctx) error {
	n, err := queryInt(c, "n", 10)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.engine.RecentInteractions(n))
}

// handleAddInteraction handles POST /v1/interactions.
func (s *Server) handleAddInteraction(c *fiber.Ctx) error {
	var req InteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Response) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "input and response are required")
	}
	return c.Status(fiber.StatusCreated).JSON(s.engine.AddInteraction(c.Context(), req.Input, req.Response))
}

// handleRelatedTopics handles GET /v1/related?text=...&n=N.
func (s *Server) handleRelatedTopics(c *fiber.Ctx) error {
	text := c.Query("text")
	if text == "" {
		return errorJSON(c, fiber.StatusBadRequest, "text parameter is required")
	}
	n, err := queryInt(c, "n", 5)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(RelatedResponse{Topics: s.engine.RelatedTopics(text, n)})
}
