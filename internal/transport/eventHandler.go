package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/citypulse/events-api/internal/entity"
	"github.com/citypulse/events-api/internal/search"
	"github.com/citypulse/events-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// viewerIDHeader carries the authenticated user id supplied by the host
// application, used for attendance personalization.
const viewerIDHeader = "X-Viewer-ID"

type EventHandler struct {
	eventService service.EventQueryService
}

func NewEventHandler(eventService service.EventQueryService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	viewerID, ok := viewerFromHeader(c)
	if !ok {
		return
	}

	event, err := h.eventService.FetchEvent(c.Request.Context(), id, c.Query("tz"), viewerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) SearchEvents(c *gin.Context) {
	viewerID, ok := viewerFromHeader(c)
	if !ok {
		return
	}

	req := &service.SearchEventsRequest{
		Timezone: c.Query("tz"),
		ViewerID: viewerID,
	}

	var parseErr string
	req.StartDate, parseErr = dateParam(c, "start_date")
	if parseErr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr})
		return
	}
	req.EndDate, parseErr = dateParam(c, "end_date")
	if parseErr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr})
		return
	}

	if kw := c.Query("keywords"); kw != "" {
		for _, term := range strings.Split(kw, ",") {
			if term = strings.TrimSpace(term); term != "" {
				req.Keywords = append(req.Keywords, term)
			}
		}
	}

	distance, err := distanceParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Distance = distance

	req.Geocoded = c.Query("geocoded") == "true"
	if c.Query("attending") == "true" {
		if viewerID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "attending filter requires " + viewerIDHeader})
			return
		}
		req.AttendingOnly = true
	}

	req.Offset, _ = strconv.Atoi(c.Query("offset"))
	req.Limit, _ = strconv.Atoi(c.Query("limit"))

	page, err := h.eventService.SearchEvents(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *EventHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, entity.ErrMissingEventID),
		errors.Is(err, entity.ErrConflictingViewer),
		errors.Is(err, entity.ErrMissingViewer),
		errors.Is(err, entity.ErrUnknownTimezone),
		errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithField("request_id", c.GetString("request_id")).
			Errorf("event query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func viewerFromHeader(c *gin.Context) (int64, bool) {
	header := c.GetHeader(viewerIDHeader)
	if header == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(header, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + viewerIDHeader + " header"})
		return 0, false
	}
	return id, true
}

func dateParam(c *gin.Context, name string) (*time.Time, string) {
	value := c.Query(name)
	if value == "" {
		return nil, ""
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, name + " must be in YYYY-MM-DD format"
	}
	return &date, ""
}

func distanceParams(c *gin.Context) (*search.DistanceFilter, error) {
	latStr, lngStr, radStr := c.Query("lat"), c.Query("lng"), c.Query("radius_miles")
	if latStr == "" && lngStr == "" && radStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" || radStr == "" {
		return nil, errors.New("lat, lng and radius_miles must be supplied together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid lat")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errors.New("invalid lng")
	}
	radius, err := strconv.ParseFloat(radStr, 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid radius_miles")
	}
	return &search.DistanceFilter{Lat: lat, Long: lng, RadiusMiles: radius}, nil
}
