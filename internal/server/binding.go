package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

type partyURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type articleURI struct {
	Article string `uri:"article" binding:"required"`
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.Status(http.StatusNotFound)
		return false
	}
	return true
}

// bindQuery reports the first failing field through messages. It writes no
// response so callers can re-render their form.
func bindQuery(c *gin.Context, req any, messages bindMessages, fallback string) (string, bool) {
	if err := c.ShouldBindQuery(req); err != nil {
		return resolveBindError(err, messages, fallback), false
	}
	return "", true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
