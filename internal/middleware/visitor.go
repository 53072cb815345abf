package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pura-pata-web/internal/visitors"
)

const (
	VisitorKey    = "visitor"
	VisitorCookie = "pp_visitor"
)

// Visitor attaches the visitor state of the browser, issuing a new cookie
// when the browser has none or its state has expired.
func Visitor(reg *visitors.Registry, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(VisitorCookie)
		v, created := reg.Ensure(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(VisitorCookie, v.ID, 0, "/", "", secure, true)
		}
		c.Set(VisitorKey, v)
		c.Next()
	}
}

func CurrentVisitor(c *gin.Context) *visitors.Visitor {
	v, ok := c.Get(VisitorKey)
	if !ok {
		return nil
	}
	visitor, _ := v.(*visitors.Visitor)
	return visitor
}
