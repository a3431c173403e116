package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
)

// userIDKey is the gin context key carrying the authenticated user id.
const userIDKey = "user_id"

// pinAuth resolves the PIN header to a user id and stores it in the
// context. Requests without a valid PIN are rejected with 401.
func pinAuth(auth AuthAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		pin := c.GetHeader(common.PinHeaderName)
		if pin == "" {
			respondError(c, http.StatusUnauthorized, "missing PIN")
			return
		}
		userID, err := auth.Resolve(c.Request.Context(), pin)
		if err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				respondError(c, http.StatusUnauthorized, "invalid PIN")
				return
			}
			respondError(c, http.StatusInternalServerError, "internal error")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}
