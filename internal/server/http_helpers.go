package server

import (
	"errors"
	"net/http"

	"wiki-race/internal/game"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func render(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func gamePath(partyID string) string {
	return "/game/" + partyID
}

func joinPath(partyID string) string {
	return "/join/" + partyID
}

func wsPath(partyID string) string {
	return "/ws/games/" + partyID
}
