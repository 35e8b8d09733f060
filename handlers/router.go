package handlers

import (
	"net/http"
	"time"

	"idcheck/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter wires the endpoints. Panics in a handler are answered with the generic 500 response.
func NewRouter(h *Handlers, debug bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Errorf("Recovered from panic in %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, InternalResponse)
	}))
	_ = router.SetTrustedProxies([]string{})
	if h.opts.MaxUploadSize > 0 {
		router.MaxMultipartMemory = h.opts.MaxUploadSize
	}
	if debug {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          30 * 24 * time.Hour,
	}))
	if !debug {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	router.Use(utils.CacheControl(utils.CacheNoCache))

	router.GET("/", h.Index)
	router.POST("/upload", h.Upload)
	router.GET("/gallery", h.Gallery)
	router.GET("/status", h.Status)
	return router
}
