package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/config"
)

// CORS builds the cross-origin policy from configuration
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			c.AllowOrigins = nil
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			break
		}
	}
	return cors.New(c)
}
