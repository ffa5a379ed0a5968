package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/catalog"
	"github.com/mentneo/mentmine/pkg/controller"
)

// API holds what the public handlers need.
type API struct {
	Querier catalog.Querier
	Catalog *catalog.Service
	// Collections limits /v1/collections/:name to these names. Empty allows any.
	Collections []string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (a API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a API) exposed(name string) bool {
	if len(a.Collections) == 0 {
		return true
	}
	for _, c := range a.Collections {
		if c == name {
			return true
		}
	}
	return false
}

func (a API) register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/collections/:name", a.handleCollection)
	v1.GET("/courses", a.handleCourses)
	v1.GET("/events/upcoming", a.handleUpcomingEvents)
	v1.GET("/reviews", a.handleReviews)
	v1.GET("/team", a.handleTeam)
}

func (a API) handleCollection(c *gin.Context) {
	name := c.Param("name")
	if !a.exposed(name) {
		c.AbortWithStatusJSON(http.StatusNotFound, controller.ErrorResponse{
			Error:   "not_found",
			Message: "unknown collection",
		})
		return
	}

	cfg, err := controller.ParseQueryConfig(c, a.now())
	if err != nil {
		controller.Error(c, err)
		return
	}
	records, err := a.Querier.Query(c.Request.Context(), name, cfg)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.List(c, name, records)
}

func (a API) handleCourses(c *gin.Context) {
	featured, err := controller.ParseBool("featured", c.Query("featured"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	limit, err := controller.ParseLimit(c.Query("limit"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	courses, err := a.Catalog.Courses(c.Request.Context(), catalog.CourseFilter{
		FeaturedOnly: featured,
		Category:     c.Query("category"),
		Sort:         c.Query("sort"),
		Limit:        limit,
	})
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.List(c, "", courses)
}

func (a API) handleUpcomingEvents(c *gin.Context) {
	limit, err := controller.ParseLimit(c.Query("limit"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	events, err := a.Catalog.UpcomingEvents(c.Request.Context(), a.now(), limit)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.List(c, "", events)
}

func (a API) handleReviews(c *gin.Context) {
	limit, err := controller.ParseLimit(c.Query("limit"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	reviews, err := a.Catalog.Reviews(c.Request.Context(), limit)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.List(c, "", reviews)
}

func (a API) handleTeam(c *gin.Context) {
	team, err := a.Catalog.Team(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.List(c, "", team)
}
