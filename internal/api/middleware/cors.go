package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the configured origins, or any origin when none are
// configured.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "Accept", "X-Requested-With", "X-SPA")
	cc.MaxAge = 12 * time.Hour
	if len(allowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = allowedOrigins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}
