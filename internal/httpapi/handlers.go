package httpapi

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// GetVesselHandler returns the latest snapshot for an IMO or MMSI.
func GetVesselHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Analysis.Vessel(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(v)
	}
}

// VesselAnalysisHandler looks the vessel up and analyzes its route.
func VesselAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := deps.Analysis.AnalyzeVessel(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(a)
	}
}

// analysisRequest is a posted vessel snapshot. Coordinates are pointers so
// that an omitted position is distinguishable from 0,0.
type analysisRequest struct {
	models.VesselState
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *analysisRequest) vessel() *models.VesselState {
	v := r.VesselState
	if r.Latitude == nil || r.Longitude == nil {
		v.PositionUnknown = true
		return &v
	}
	v.Latitude = *r.Latitude
	v.Longitude = *r.Longitude
	return &v
}

// AnalyzeHandler analyzes a posted vessel snapshot.
func AnalyzeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req analysisRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		a, err := deps.Analysis.Analyze(c.UserContext(), req.vessel())
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(a)
	}
}

// SearchPortsHandler lists ports matching q. When the store has no match
// the resolver chain is asked for a single best port.
func SearchPortsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "q is required")
		}
		limit := c.QueryInt("limit", defaultSearchLimit)
		if limit <= 0 || limit > maxSearchLimit {
			limit = defaultSearchLimit
		}

		var found []models.Port
		if deps.Ports != nil {
			var err error
			found, err = deps.Ports.Search(c.UserContext(), q, limit)
			if err != nil {
				return errFrom(c, err)
			}
		}
		if len(found) == 0 && deps.Resolver != nil {
			p, err := deps.Resolver.Resolve(c.UserContext(), q)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
			case err != nil:
				return errFrom(c, err)
			case p != nil:
				found = append(found, *p)
			}
		}
		if len(found) == 0 {
			return errNotFound(c, "no port matches "+strconv.Quote(q))
		}
		return c.JSON(fiber.Map{"data": found, "total": len(found)})
	}
}

// DistanceHandler returns the great-circle distance and initial bearing
// between two points.
func DistanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var coords [4]float64
		for i, name := range []string{"from_lat", "from_lng", "to_lat", "to_lng"} {
			f, err := strconv.ParseFloat(c.Query(name), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return errBadRequest(c, name+" must be a number")
			}
			coords[i] = f
		}
		fromLat, fromLng, toLat, toLng := coords[0], coords[1], coords[2], coords[3]
		if math.Abs(fromLat) > 90 || math.Abs(toLat) > 90 || math.Abs(fromLng) > 180 || math.Abs(toLng) > 180 {
			return errBadRequest(c, "coordinates out of range")
		}

		nm := geo.Distance(fromLat, fromLng, toLat, toLng)
		return c.JSON(fiber.Map{
			"distance_nm":    nm,
			"distance_miles": nm * geo.NMToMiles,
			"bearing":        geo.Bearing(fromLat, fromLng, toLat, toLng),
		})
	}
}
