package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS 允许 allowedOrigins 中的来源跨域访问，"*" 表示任意来源。
// 不允许携带凭证，未配置任何来源时不做跨域处理。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Cache-Control"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		if len(allowedOrigins) == 0 {
			return func(c *gin.Context) { c.Next() }
		}
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
