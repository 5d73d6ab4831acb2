package handler

import (
	"github.com/julienschmidt/httprouter"
)

func (h *TourHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tours", h.Create)
	router.GET("/api/v1/tours", h.GetAll)
	router.GET("/api/v1/tours/id/:id", h.GetByID)
	router.PATCH("/api/v1/tours/id/:id", h.Update)
	router.DELETE("/api/v1/tours/id/:id", h.Delete)
}
