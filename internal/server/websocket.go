package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsConn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsConn]struct{}),
	}
}

func (h *wsHub) Add(partyID string, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[partyID]
	if group == nil {
		group = make(map[*wsConn]struct{})
		h.groups[partyID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(partyID string, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[partyID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.conn.Close()
	if len(group) == 0 {
		delete(h.groups, partyID)
	}
}

func (h *wsHub) Size(partyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[partyID])
}

func (h *wsHub) Send(conn *wsConn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.write(data)
}

func (h *wsHub) Broadcast(partyID string, payload any) {
	h.mu.Lock()
	group := h.groups[partyID]
	conns := make([]*wsConn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.write(data); err != nil {
			h.Remove(partyID, conn)
		}
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	var req partyURI
	if !bindURI(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.engine.Party(ctx, req.ID); err != nil {
		c.Status(statusForError(err))
		return
	}
	userID := s.cookieUserID(c.Request)
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	member, ok, err := s.engine.GetMember(ctx, req.ID, userID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if !ok {
		log.Printf("ws rejected party_id=%s user_id=%s reason=not_member", req.ID, userID)
		c.Status(http.StatusForbidden)
		return
	}
	isAdmin, err := s.engine.IsAdmin(ctx, req.ID, userID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected party_id=%s member_id=%d remote=%s", req.ID, member.ID, c.Request.RemoteAddr)

	connCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		ctx:     connCtx,
		conn:    &wsConn{conn: raw},
		partyID: req.ID,
		userID:  userID,
		member:  member,
		isAdmin: isAdmin,
	}
	s.ws.Add(sess.partyID, sess.conn)
	s.broadcastLeaderboard(connCtx, sess.partyID)
	s.recoverSession(sess)
	go s.readWS(sess, cancel)
}

func (s *Server) readWS(sess *session, cancel context.CancelFunc) {
	defer s.ws.Remove(sess.partyID, sess.conn)
	defer cancel()
	for {
		_, payload, err := sess.conn.conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected party_id=%s member_id=%d error=%v", sess.partyID, sess.member.ID, err)
			return
		}
		s.dispatch(sess, decodeAction(payload))
	}
}
