package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"wiki-race/internal/game"
	"wiki-race/internal/web"

	"github.com/gin-gonic/gin"
)

type createPartyRequest struct {
	Name      string `form:"name" binding:"required,name"`
	TimeLimit int    `form:"time_limit_seconds" binding:"required"`
}

type enterPartyRequest struct {
	PartyID string `form:"game_id" binding:"required,uuid"`
	Name    string `form:"name" binding:"required,name"`
}

var createPartyMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"name":     fmt.Sprintf("name must be 1-%d simple characters", maxNameLength),
	},
	"TimeLimit": {
		"required": "time limit is required",
	},
}

var enterPartyMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"name":     fmt.Sprintf("name must be 1-%d simple characters", maxNameLength),
	},
}

func (s *Server) handleCreateParty(c *gin.Context) {
	var req createPartyRequest
	if msg, ok := bindQuery(c, &req, createPartyMessages, "invalid party settings"); !ok {
		render(c, http.StatusBadRequest, web.NewParty(s.newPartyView(msg)))
		return
	}
	name, _ := validateName(req.Name)
	user, err := s.currentUser(c)
	if err != nil {
		log.Printf("resolve user failed error=%v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	party, _, err := s.engine.CreateParty(c.Request.Context(), user.ID, name, req.TimeLimit)
	if errors.Is(err, game.ErrInvalidConfiguration) {
		opts := s.engine.Options()
		msg := fmt.Sprintf("time limit must be between %d and %d seconds", opts.TimeLimitMin, opts.TimeLimitMax)
		render(c, http.StatusBadRequest, web.NewParty(s.newPartyView(msg)))
		return
	}
	if err != nil {
		log.Printf("create party failed user_id=%s error=%v", user.ID, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusFound, gamePath(party.ID))
}

func (s *Server) handleEnterParty(c *gin.Context) {
	var req enterPartyRequest
	if msg, ok := bindQuery(c, &req, enterPartyMessages, "invalid join request"); !ok {
		partyID := c.Query("game_id")
		if _, err := s.engine.Party(c.Request.Context(), partyID); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		render(c, http.StatusBadRequest, web.Join(web.JoinView{PartyID: partyID, Error: msg}))
		return
	}
	name, _ := validateName(req.Name)
	ctx := c.Request.Context()
	if _, err := s.engine.Party(ctx, req.PartyID); err != nil {
		c.Status(statusForError(err))
		return
	}
	user, err := s.currentUser(c)
	if err != nil {
		log.Printf("resolve user failed error=%v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if _, err := s.engine.JoinParty(ctx, user.ID, req.PartyID, name); err != nil {
		log.Printf("join party failed party_id=%s user_id=%s error=%v", req.PartyID, user.ID, err)
		c.Status(statusForError(err))
		return
	}
	c.Redirect(http.StatusFound, gamePath(req.PartyID))
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	var req partyURI
	if !bindURI(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.engine.Party(ctx, req.ID); err != nil {
		c.JSON(statusForError(err), gin.H{"error": "party not found"})
		return
	}
	leaderboard, err := s.engine.Leaderboard(ctx, req.ID)
	if err != nil {
		log.Printf("leaderboard failed party_id=%s error=%v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, leaderboardData{Leaderboards: leaderboard})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
