package handler

import (
	"github.com/julienschmidt/httprouter"
)

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reviews", h.Create)
	router.GET("/api/v1/reviews/eligibility", h.Eligibility)
	router.GET("/api/v1/reviews/stats/overview", h.Stats)
	router.GET("/api/v1/reviews/tour/:tourId", h.GetByTour)
	router.GET("/api/v1/reviews/id/:id", h.GetByID)
	router.PATCH("/api/v1/reviews/id/:id", h.Update)
	router.DELETE("/api/v1/reviews/id/:id", h.Delete)
	router.POST("/api/v1/reviews/id/:id/report", h.Report)
	router.PATCH("/api/v1/reviews/id/:id/moderate", h.Moderate)
	router.POST("/api/v1/reviews/id/:id/responses", h.Respond)
	router.POST("/api/v1/reviews/id/:id/helpful", h.MarkHelpful)
}
