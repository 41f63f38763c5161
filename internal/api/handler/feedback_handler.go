package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deadwick/feedback-service/internal/api/metrics"
	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

const defaultMaxUpload = 5 << 20

// FeedbackHandler handles HTTP requests for the feedback pipeline.
type FeedbackHandler struct {
	service   ports.FeedbackService
	maxUpload int64
}

func NewFeedbackHandler(service ports.FeedbackService, maxUpload int64) *FeedbackHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &FeedbackHandler{service: service, maxUpload: maxUpload}
}

// List returns the public feed, newest first.
//
// @Summary      List feedback
// @Tags         feedback
// @Produce      json
// @Success      200  {object}  feedbackListResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/feedback [get]
func (h *FeedbackHandler) List(c echo.Context) error {
	records, err := h.service.List(c.Request().Context())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("list", reason(err)).Inc()
		return err
	}
	return c.JSON(http.StatusOK, toFeedbackList(records))
}

// Submit creates a feedback record from a multipart form with fields
// message, rating and an optional image file.
//
// @Summary      Submit feedback
// @Tags         feedback
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        message  formData  string  true   "Feedback text"
// @Param        rating   formData  int     true   "Rating from 1 to 5"
// @Param        image    formData  file    false  "Optional image"
// @Success      201  {object}  feedbackResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/feedback [post]
func (h *FeedbackHandler) Submit(c echo.Context) error {
	start := time.Now()

	in, err := h.parseSubmission(c)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("submit", "validation").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	rec, err := h.service.Submit(c.Request().Context(), ctxSession(c), in)
	if err != nil {
		metrics.SubmitDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		metrics.ErrorsTotal.WithLabelValues("submit", reason(err)).Inc()
		return err
	}

	metrics.SubmitDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.SubmittedTotal.WithLabelValues(strconv.FormatBool(rec.HasImage())).Inc()
	return c.JSON(http.StatusCreated, toFeedbackResponse(*rec))
}

// Mine returns the caller's own submissions.
//
// @Summary      List own feedback
// @Tags         feedback
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  feedbackListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/me/feedback [get]
func (h *FeedbackHandler) Mine(c echo.Context) error {
	records, err := h.service.ListOwn(c.Request().Context(), ctxSession(c))
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("list", reason(err)).Inc()
		return err
	}
	return c.JSON(http.StatusOK, toFeedbackList(records))
}

// Delete permanently removes a record and its image.
//
// @Summary      Delete feedback
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Feedback ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/feedback/{id} [delete]
func (h *FeedbackHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), ctxSession(c), c.Param("id")); err != nil {
		metrics.ErrorsTotal.WithLabelValues("delete", reason(err)).Inc()
		return err
	}
	metrics.DeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// parseSubmission reads the multipart form. A missing rating parses as 0 and
// is rejected by the service.
func (h *FeedbackHandler) parseSubmission(c echo.Context) (ports.SubmitFeedbackInput, error) {
	in := ports.SubmitFeedbackInput{Message: c.FormValue("message")}

	if raw := strings.TrimSpace(c.FormValue("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("rating must be a whole number")
		}
		in.Rating = rating
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil
		}
		return in, fmt.Errorf("invalid image upload")
	}
	if fh.Size > h.maxUpload {
		return in, fmt.Errorf("image exceeds %d bytes", h.maxUpload)
	}

	f, err := fh.Open()
	if err != nil {
		return in, fmt.Errorf("invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return in, fmt.Errorf("invalid image upload")
	}
	if int64(len(data)) > h.maxUpload {
		return in, fmt.Errorf("image exceeds %d bytes", h.maxUpload)
	}

	in.Image = &ports.MediaInput{Data: data, OriginalName: fh.Filename}
	return in, nil
}

// reason maps an error onto the metrics label set.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrAuthorization):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
