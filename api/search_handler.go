package api

import (
	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/sassy/api/search"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the text to recall memories about
//   - limit (optional, default 5): number of results to return
//   - kind (optional): only return memories of this kind
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "query parameter is required")
	}

	limit, err := queryInt(c, "limit", apisearch.DefaultLimit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	output := apisearch.Search(c.Context(), apisearch.SearchInput{
		Query: query,
		Limit: limit,
		Kind:  c.Query("kind"),
	}, s.engine, s.logger)

	return c.JSON(output)
}
