package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gtdkeeper/internal/server/services"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

func respondOK(c *gin.Context, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "encoding response failed")
		return
	}
	c.JSON(http.StatusOK, wire.Envelope{Success: true, Data: raw})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, wire.Envelope{Success: false, Message: message})
}

func (h *handler) health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

func (h *handler) register(c *gin.Context) {
	var req wire.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Pin)
	switch {
	case errors.Is(err, services.ErrBadPinFormat), errors.Is(err, services.ErrPinTaken):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error(c.Request.Context(), "register failed", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, wire.RegisterData{UserID: user.ID})
}

func (h *handler) verify(c *gin.Context) {
	var req wire.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	user, valid, err := h.auth.Verify(c.Request.Context(), req.Pin)
	if err != nil {
		h.log.Error(c.Request.Context(), "verify failed", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	data := wire.VerifyData{Valid: valid}
	if valid {
		data.UserID = user.ID
	}
	respondOK(c, data)
}

func (h *handler) handleSync(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	var req wire.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	data, err := h.sync.Sync(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, services.ErrBadWatermark) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error(c.Request.Context(), "sync failed", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, data)
}
