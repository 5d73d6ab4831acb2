package handler

import (
	"net/http"

	"tourbook/internal/reviews/service"
	"tourbook/pkg/auth"
	httputil "tourbook/pkg/http"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	h.respond(w, "GetByID", review, err)
}

func (h *ReviewHandler) GetByTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetByTour", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	reviews, total, err := h.service.ListByTour(r.Context(), actor, ps.ByName("tourId"), limit, offset)
	if err != nil {
		h.writeError(w, "GetByTour", err)
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByTour", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ReviewUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &updates)
	h.respond(w, "Update", review, err)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReviewHandler) Report(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.Report(r.Context(), actor, ps.ByName("id"))
	h.respond(w, "Report", review, err)
}

func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ModerationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Moderate", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.Moderate(r.Context(), actor, ps.ByName("id"), &req)
	h.respond(w, "Moderate", review, err)
}

func (h *ReviewHandler) Respond(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ResponseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Respond", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.Respond(r.Context(), actor, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Respond", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Respond", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := auth.ActorFromContext(r.Context())
	review, err := h.service.MarkHelpful(r.Context(), actor, ps.ByName("id"))
	h.respond(w, "MarkHelpful", review, err)
}

// Eligibility answers for the calling user: ?tour_id=...&booking_id=...
func (h *ReviewHandler) Eligibility(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	actor, _ := auth.ActorFromContext(r.Context())
	result, err := h.service.CheckEligibility(r.Context(), actor, query.Get("tour_id"), query.Get("booking_id"))
	h.respond(w, "Eligibility", result, err)
}

func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := auth.ActorFromContext(r.Context())
	result, err := h.service.Stats(r.Context(), actor)
	h.respond(w, "Stats", result, err)
}

func (h *ReviewHandler) respond(w http.ResponseWriter, handler string, data any, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
