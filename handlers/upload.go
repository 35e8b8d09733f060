package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"idcheck/faces"
	"idcheck/processing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var countWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

// FaceCountMessage gives e.g. "Exactly two faces must be in the photo."
func FaceCountMessage(expected int) string {
	count := fmt.Sprint(expected)
	if expected >= 0 && expected < len(countWords) {
		count = countWords[expected]
	}
	if expected == 1 {
		return fmt.Sprintf("Exactly %s face must be in the photo.", count)
	}
	return fmt.Sprintf("Exactly %s faces must be in the photo.", count)
}

type uploadError struct {
	status   int
	response Response
}

// readUpload returns the uploaded file name and contents.
func (h *Handlers) readUpload(c *gin.Context) (string, []byte, *uploadError) {
	if limit := h.opts.MaxUploadSize; limit > 0 {
		if c.Request.ContentLength > limit {
			return "", nil, &uploadError{http.StatusRequestEntityTooLarge, TooLargeResponse}
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, &uploadError{http.StatusRequestEntityTooLarge, TooLargeResponse}
		}
		// Browsers send an empty filename when nothing was picked; such parts end up as plain values
		if form := c.Request.MultipartForm; form != nil {
			if _, exists := form.Value["image"]; exists {
				return "", nil, &uploadError{http.StatusBadRequest, NoFileResponse}
			}
		}
		return "", nil, &uploadError{http.StatusBadRequest, NoImageResponse}
	}
	if fileHeader.Filename == "" {
		return "", nil, &uploadError{http.StatusBadRequest, NoFileResponse}
	}
	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("Cannot open uploaded file %s: %v", fileHeader.Filename, err)
		return "", nil, &uploadError{http.StatusInternalServerError, InternalResponse}
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("Cannot read uploaded file %s: %v", fileHeader.Filename, err)
		return "", nil, &uploadError{http.StatusInternalServerError, InternalResponse}
	}
	return fileHeader.Filename, data, nil
}

// Upload recognizes the faces in the "image" part and answers with their labels
// when exactly ExpectedFaces were found.
func (h *Handlers) Upload(c *gin.Context) {
	fileName, data, failure := h.readUpload(c)
	if failure != nil {
		c.JSON(failure.status, failure.response)
		return
	}

	ctx := c.Request.Context()
	if err := h.slots.Acquire(ctx, 1); err != nil {
		log.Warnf("Upload %s abandoned while waiting for a slot: %v", fileName, err)
		c.JSON(http.StatusInternalServerError, InternalResponse)
		return
	}
	h.inFlight.Add(1)
	defer func() {
		h.inFlight.Add(-1)
		h.slots.Release(1)
	}()

	logger := log.WithField("file", fileName)
	start := time.Now()
	img, err := processing.Prepare(data, h.opts.Prepare)
	if err != nil {
		if errors.Is(err, faces.ErrDecode) {
			logger.Infof("Invalid image: %v", err)
			c.JSON(http.StatusBadRequest, InvalidImageResponse)
			return
		}
		logger.Errorf("Cannot prepare image: %v", err)
		c.JSON(http.StatusInternalServerError, InternalResponse)
		return
	}
	recognitions, err := h.opts.Recognizer.Analyze(ctx, img)
	if err != nil {
		logger.Errorf("Recognition failed: %v", err)
		c.JSON(http.StatusInternalServerError, InternalResponse)
		return
	}
	results := faces.Matches(recognitions)
	upload := &processing.Upload{
		ID:           uuid.NewString(),
		CreatedAt:    start,
		FileName:     fileName,
		Image:        img,
		Recognitions: recognitions,
		Expected:     h.opts.ExpectedFaces,
	}
	logger.WithFields(log.Fields{
		"upload":   upload.ID,
		"faces":    len(results),
		"accepted": upload.Accepted(),
		"took":     time.Since(start),
	}).Info("Upload recognized")
	if h.opts.Tasks != nil {
		h.opts.Tasks.Go(upload)
	}

	var mismatch *faces.FaceCountMismatch
	if err := faces.CheckFaceCount(results, h.opts.ExpectedFaces); errors.As(err, &mismatch) {
		c.JSON(http.StatusBadRequest, FaceCountResponse{
			Error:         FaceCountMessage(mismatch.Expected),
			DetectedFaces: mismatch.Detected,
		})
		return
	}
	c.JSON(http.StatusOK, RecognizedResponse{RecognizedIDs: faces.Labels(results)})
}
