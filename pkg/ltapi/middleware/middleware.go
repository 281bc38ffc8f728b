// Package middleware provides the gin middleware for the read-only API.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltapi/types"
)

// Recovery turns a handler panic into a 500 response in the API envelope
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("API panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, types.Response{
					Error: &types.ErrorInfo{Code: "INTERNAL_ERROR", Message: "internal server error"},
				})
			}
		}()
		c.Next()
	}
}

// RequestLogger logs requests at debug level. Paths in skip, such as the
// metrics scrape, are not logged.
func RequestLogger(skip ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(skip))
	for _, p := range skip {
		quiet[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if quiet[c.Request.URL.Path] {
			return
		}
		log.Debugf("API %s %s %d %v", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
	}
}

// CORS lets browser dashboards read the API. Only safe methods are allowed.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Last-Event-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// NoStore marks responses as live console state that must not be cached
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
