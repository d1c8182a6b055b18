package server

import (
	"errors"
	"log"
	"net/http"

	"wiki-race/internal/web"
	"wiki-race/internal/wiki"

	"github.com/gin-gonic/gin"
)

const defaultTimeLimitSeconds = 300

func (s *Server) handleHome(c *gin.Context) {
	render(c, http.StatusOK, web.Home())
}

func (s *Server) newPartyView(errMsg string) web.NewPartyView {
	opts := s.engine.Options()
	def := defaultTimeLimitSeconds
	if def < opts.TimeLimitMin {
		def = opts.TimeLimitMin
	}
	if def > opts.TimeLimitMax {
		def = opts.TimeLimitMax
	}
	return web.NewPartyView{
		MinSeconds:     opts.TimeLimitMin,
		MaxSeconds:     opts.TimeLimitMax,
		DefaultSeconds: def,
		Error:          errMsg,
	}
}

func (s *Server) handleNewPartyView(c *gin.Context) {
	if _, err := s.currentUser(c); err != nil {
		log.Printf("resolve user failed error=%v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	render(c, http.StatusOK, web.NewParty(s.newPartyView("")))
}

func (s *Server) handleJoinView(c *gin.Context) {
	var req partyURI
	if !bindURI(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.engine.Party(ctx, req.ID); err != nil {
		c.Status(statusForError(err))
		return
	}
	user, err := s.currentUser(c)
	if err != nil {
		log.Printf("resolve user failed error=%v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if _, ok, err := s.engine.GetMember(ctx, req.ID, user.ID); err == nil && ok {
		c.Redirect(http.StatusFound, gamePath(req.ID))
		return
	}
	render(c, http.StatusOK, web.Join(web.JoinView{PartyID: req.ID}))
}

func (s *Server) handleGameView(c *gin.Context) {
	var req partyURI
	if !bindURI(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.engine.Party(ctx, req.ID); err != nil {
		log.Printf("game view missing party_id=%s error=%v", req.ID, err)
		c.Status(statusForError(err))
		return
	}
	userID := s.cookieUserID(c.Request)
	if userID == "" {
		c.Redirect(http.StatusFound, joinPath(req.ID))
		return
	}
	member, ok, err := s.engine.GetMember(ctx, req.ID, userID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if !ok {
		c.Redirect(http.StatusFound, joinPath(req.ID))
		return
	}
	isAdmin, err := s.engine.IsAdmin(ctx, req.ID, userID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	render(c, http.StatusOK, web.Game(web.GameView{
		PartyID:    req.ID,
		MemberName: member.Name,
		IsAdmin:    isAdmin,
		WSPath:     wsPath(req.ID),
	}))
}

func (s *Server) handleWikiPage(c *gin.Context) {
	var req articleURI
	if !bindURI(c, &req) {
		return
	}
	page, err := s.pages.Parse(c.Request.Context(), req.Article)
	if errors.Is(err, wiki.ErrPageNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("wiki parse failed title=%s error=%v", req.Article, err)
		c.Status(http.StatusBadGateway)
		return
	}
	body, err := wiki.FormatHTML(page.HTML)
	if err != nil {
		log.Printf("wiki format failed title=%s error=%v", req.Article, err)
		c.Status(http.StatusBadGateway)
		return
	}
	title := page.Title
	if title == "" {
		title = req.Article
	}
	render(c, http.StatusOK, web.WikiPage(web.WikiView{Title: title, HTML: body}))
}
