package handler

import (
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger 记录每个请求的方法、路径、状态码和耗时
// traceMode 打开时额外输出请求头
func RequestLogger(traceMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if traceMode {
			dump, err := httputil.DumpRequest(c.Request, false)
			if err != nil {
				log.WithField("prefix", "gin").Errorf("fail to dump request: %v", err)
			} else {
				log.WithField("prefix", "gin").WithField("req", string(dump)).Debug("incoming request")
			}
		}

		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"prefix":  "gin",
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
