package handler

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/predict"
)

const (
	// predictTimeout bounds the classifier subprocess; model cold starts
	// can take a while.
	predictTimeout = 60 * time.Second

	defaultConfThreshold = 0.5
	maxUploadBytes       = 16 << 20
)

// PredictHandler accepts an image upload and runs the classifier on it.
type PredictHandler struct {
	Predictor predict.Predictor
	UploadDir string
}

func NewPredictHandler(p predict.Predictor, uploadDir string) *PredictHandler {
	return &PredictHandler{Predictor: p, UploadDir: uploadDir}
}

// Predict handles POST /predict-image: a multipart form with an "image"
// file and an optional "threshold" field.  The upload is kept on disk so
// the client can reference it when saving to history.
func (h *PredictHandler) Predict(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	if fh.Size > maxUploadBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image too large"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image type"})
	}

	threshold := defaultConfThreshold
	if raw := c.FormValue("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "threshold must be between 0 and 1"})
		}
		threshold = t
	}

	path, err := h.saveUpload(fh, ext)
	if err != nil {
		log.Printf("predict: save upload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), predictTimeout)
	defer cancel()

	res, err := h.Predictor.Predict(ctx, path, threshold)
	if err != nil {
		log.Printf("predict: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "prediction failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"result": res,
		"image":  filepath.Base(path),
	})
}

func (h *PredictHandler) saveUpload(fh *multipart.FileHeader, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	path := filepath.Join(h.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
