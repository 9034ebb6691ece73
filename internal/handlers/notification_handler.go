package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/Tireon003/notification-management-service/internal/repositories"
	"github.com/Tireon003/notification-management-service/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service        *services.NotificationService
	log            *logrus.Logger
	streamInterval time.Duration
	streamLimit    int
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *services.NotificationService, log *logrus.Logger, streamInterval time.Duration, streamLimit int) *NotificationHandler {
	return &NotificationHandler{
		service:        service,
		log:            log,
		streamInterval: streamInterval,
		streamLimit:    streamLimit,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.POST("/notifications", h.CreateNotification)
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/stream", h.StreamNotifications)
	g.GET("/notifications/:id", h.GetNotification)
	g.PATCH("/notifications/:id/read", h.MarkAsRead)
	g.GET("/notifications/:id/processing_status", h.GetProcessingStatus)
}

// CreateNotificationRequest is the request body for creating a notification.
type CreateNotificationRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Title  string `json:"title" validate:"required,max=256"`
	Text   string `json:"text" validate:"required,max=512"`
}

// CreateNotification creates a notification and schedules its analysis
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user_id")
	}

	notification, err := h.service.Create(c.Request().Context(), services.CreateNotification{
		UserID: userID,
		Title:  req.Title,
		Text:   req.Text,
	})
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusCreated, notification)
}

// GetNotifications returns notifications ordered newest first, with optional
// offset/limit query bounds
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	paginator, err := parsePaginator(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notifications, err := h.service.List(c.Request().Context(), paginator)
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusOK, notifications)
}

// GetNotification returns detailed info about a single notification
func (h *NotificationHandler) GetNotification(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	notification, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusOK, notification)
}

// MarkAsRead marks a notification as read exactly once
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	notification, err := h.service.MarkRead(c.Request().Context(), id)
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusOK, notification)
}

// GetProcessingStatus returns the current analysis status of a notification
func (h *NotificationHandler) GetProcessingStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	status, err := h.service.ProcessingStatus(c.Request().Context(), id)
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

// StreamNotifications pushes the recent-notification snapshot as server-sent
// events at a fixed interval until the client disconnects
func (h *NotificationHandler) StreamNotifications(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			notifications, err := h.service.RecentSnapshot(ctx, h.streamLimit)
			if err != nil {
				h.log.WithError(err).Error("could not load notification snapshot for stream")
				continue
			}
			data, err := json.Marshal(notifications)
			if err != nil {
				h.log.WithError(err).Error("could not encode notification snapshot")
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}

func parsePaginator(c echo.Context) (repositories.Paginator, error) {
	var paginator repositories.Paginator
	for name, target := range map[string]**int{
		"offset": &paginator.Offset,
		"limit":  &paginator.Limit,
	} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return repositories.Paginator{}, fmt.Errorf("%s must be a non-negative integer", name)
		}
		*target = &value
	}
	return paginator, nil
}

// domainError translates domain errors to HTTP statuses. Internal errors are
// logged in full and surfaced generically.
func (h *NotificationHandler) domainError(c echo.Context, err error) error {
	var validationErr *models.ValidationError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	case errors.Is(err, models.ErrAlreadyRead):
		return echo.NewHTTPError(http.StatusConflict, "Notification already read")
	case errors.As(err, &validationErr):
		return echo.NewHTTPError(http.StatusBadRequest, validationErr.Error())
	default:
		h.log.WithError(err).WithField("path", c.Path()).Error("internal error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
