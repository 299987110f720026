package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rentalmap/config"
	"rentalmap/internal/dashboard"
	"rentalmap/internal/filter"
	"rentalmap/internal/models"
	"rentalmap/internal/stats"
)

type Handler struct {
	service *dashboard.Service
	logger  *logrus.Logger
	// refreshes started over HTTP outlive the request but not the server
	baseCtx context.Context
}

// PropertyList is the response of the property listing endpoint
type PropertyList struct {
	Total      int               `json:"total"`
	Properties []models.Property `json:"properties"`
}

func NewHandler(ctx context.Context, service *dashboard.Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{service: service, logger: logger, baseCtx: ctx}
}

func (h *Handler) filterSpec(c *gin.Context) models.FilterSpec {
	resolver := h.service.Resolver()
	return filter.Normalize(c.Request.URL.Query(), func(id int) bool {
		_, ok := resolver.District(id)
		return ok
	})
}

func (h *Handler) GetProperties(c *gin.Context) {
	limit, err := queryInt(c, "limit", -1)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	properties := h.service.Properties(h.filterSpec(c))
	total := len(properties)

	offset = min(offset, total)
	end := total
	if limit >= 0 {
		end = min(offset+limit, total)
	}

	c.JSON(http.StatusOK, PropertyList{
		Total:      total,
		Properties: properties[offset:end],
	})
}

func (h *Handler) GetProperty(c *gin.Context) {
	id := c.Param("id")
	p, ok := h.service.Property(id)
	if !ok {
		notFound(c, "Property "+id+" not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetStats(c *gin.Context) {
	groupBy, err := stats.ParseGroupBy(c.Query("group_by"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	summary := h.service.Summary(c.Request.Context(), h.filterSpec(c), groupBy)
	c.JSON(http.StatusOK, gin.H{
		"group_by": groupBy,
		"groups":   summary,
	})
}

func (h *Handler) GetDistricts(c *gin.Context) {
	var region models.Region
	if raw := c.Query("region"); raw != "" {
		r, ok := config.NormalizeRegion(raw)
		if !ok {
			badRequest(c, "Unknown region "+strconv.Quote(raw)+", expected one of "+strings.Join(config.GetRegionNames(), ", "))
			return
		}
		region = r
	}

	c.JSON(http.StatusOK, h.service.Districts(c.Request.Context(), h.filterSpec(c), region))
}

func (h *Handler) GetDistrictGeoJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Resolver().FeatureCollection())
}

func (h *Handler) LookupDistrict(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		badRequest(c, "lat must be a number between -90 and 90")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		badRequest(c, "lng must be a number between -180 and 180")
		return
	}

	district, ok := h.service.Lookup(lat, lng)
	if !ok {
		notFound(c, "No district contains the given coordinate")
		return
	}
	c.JSON(http.StatusOK, district)
}

func (h *Handler) GetLoadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

func (h *Handler) TriggerRefresh(c *gin.Context) {
	err := h.service.StartRefresh(h.baseCtx)
	if errors.Is(err, dashboard.ErrRefreshInProgress) {
		conflict(c, "A refresh is already running")
		return
	}
	if err != nil {
		internalError(c, "Failed to start refresh", err)
		return
	}

	requestLogger(c).Info("Catalog refresh requested")
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh started"})
}

func (h *Handler) Health(c *gin.Context) {
	st := h.service.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"loaded":   st.Loaded,
		"complete": st.Complete,
	})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
