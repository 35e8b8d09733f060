package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const CacheNoCache = 0

// CacheControl sets the cache-control header of every response in the group.
// maxAge in seconds, CacheNoCache disables caching.
func CacheControl(maxAge int) gin.HandlerFunc {
	value := "no-cache"
	if maxAge != CacheNoCache {
		value = "private, max-age=" + strconv.Itoa(maxAge)
	}
	return func(c *gin.Context) {
		c.Header("cache-control", value)
		c.Next()
	}
}
