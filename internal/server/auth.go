package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"wiki-race/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userCookieName   = "wr_user"
	userCookieMaxAge = 365 * 24 * time.Hour
)

// identity signs the anonymous user id carried in the user cookie.
type identity struct {
	secret []byte
}

func newIdentity(secret string) *identity {
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			secret = hex.EncodeToString(buf)
		} else {
			secret = time.Now().UTC().String()
		}
	}
	return &identity{secret: []byte(secret)}
}

func (i *identity) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *identity) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// cookieUserID returns the verified user id from the request, or "".
func (s *Server) cookieUserID(r *http.Request) string {
	cookie, err := r.Cookie(userCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	userID, err := s.identity.Verify(cookie.Value)
	if err != nil {
		return ""
	}
	return userID
}

// currentUser resolves the request's user, creating one and setting the
// cookie when the request carries no valid identity.
func (s *Server) currentUser(c *gin.Context) (game.User, error) {
	existing := s.cookieUserID(c.Request)
	user, err := s.engine.ResolveUser(c.Request.Context(), existing)
	if err != nil {
		return game.User{}, err
	}
	if user.ID == existing {
		return user, nil
	}
	token, err := s.identity.Issue(user.ID)
	if err != nil {
		return game.User{}, err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     userCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(userCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureWebsockets,
		SameSite: http.SameSiteLaxMode,
	})
	return user, nil
}
