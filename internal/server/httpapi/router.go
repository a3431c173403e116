// Package httpapi exposes the sync server over HTTP: health probe, PIN
// registration and verification, and the sync exchange itself behind PIN
// authentication. Every response is wrapped in the wire envelope.
package httpapi

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

// AuthAPI is the auth surface the handlers need.
type AuthAPI interface {
	Register(ctx context.Context, pin string) (*models.User, error)
	Verify(ctx context.Context, pin string) (*models.User, bool, error)
	Resolve(ctx context.Context, pin string) (int64, error)
}

// SyncAPI performs one sync exchange for an authenticated user.
type SyncAPI interface {
	Sync(ctx context.Context, userID int64, req wire.SyncRequest) (*wire.SyncData, error)
}

type handler struct {
	auth AuthAPI
	sync SyncAPI
	log  logging.Logger
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(auth AuthAPI, sync SyncAPI, log logging.Logger) *gin.Engine {
	h := &handler{auth: auth, sync: sync, log: log}

	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, common.PinHeaderName)
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.health)
	r.POST("/auth/register", h.register)
	r.POST("/auth/verify", h.verify)

	authed := r.Group("/", pinAuth(auth))
	authed.POST("/sync", h.handleSync)

	return r
}
