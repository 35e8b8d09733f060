package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	log "github.com/sirupsen/logrus"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Real-Time ID Check</title></head>
<body>
<h1>Real-Time ID Check</h1>
<form method="post" action="/upload" enctype="multipart/form-data">
  <input type="file" name="image" accept="image/*" required>
  <input type="submit" value="Upload">
</form>
</body>
</html>
`

func (h *Handlers) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

type GalleryResponse struct {
	Model  string   `json:"model"`
	Count  int      `json:"count"`
	Labels []string `json:"labels"`
}

func (h *Handlers) Gallery(c *gin.Context) {
	g := h.gallery()
	c.JSON(http.StatusOK, GalleryResponse{
		Model:  h.opts.Model,
		Count:  g.Len(),
		Labels: g.Labels(),
	})
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Uptime        string   `json:"uptime"`
	GallerySize   int      `json:"gallery_size"`
	InFlight      int64    `json:"in_flight"`
	MaxConcurrent int64    `json:"max_concurrent"`
	NumCPU        int      `json:"num_cpu"`
	CPUUsage      float64  `json:"cpu_usage"`
	FreeSpace     uint64   `json:"storage_free_space"`
	Tasks         []string `json:"tasks"`
}

const cpuSampleTime = 200 * time.Millisecond

func cpuUsage() float64 {
	percentages, err := cpu.Percent(cpuSampleTime, false)
	if err != nil || len(percentages) == 0 {
		log.Warnf("Cannot measure CPU usage: %v", err)
		return 0
	}
	return percentages[0]
}

func (h *Handlers) Status(c *gin.Context) {
	tasks := []string{}
	if h.opts.Tasks != nil {
		tasks = h.opts.Tasks.Names()
	}
	var freeSpace uint64
	if h.opts.Storage != nil {
		freeSpace = h.opts.Storage.GetFreeSpace()
	}
	c.JSON(http.StatusOK, StatusResponse{
		Status:        "ok",
		Uptime:        time.Since(h.started).Round(time.Second).String(),
		GallerySize:   h.gallery().Len(),
		InFlight:      h.InFlight(),
		MaxConcurrent: h.opts.MaxConcurrent,
		NumCPU:        runtime.NumCPU(),
		CPUUsage:      cpuUsage(),
		FreeSpace:     freeSpace,
		Tasks:         tasks,
	})
}
