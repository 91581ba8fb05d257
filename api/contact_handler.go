package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/services"
)

const maxContactBodySize = 64 << 10

type contactHandler struct {
	responder Responder
	logger    zerolog.Logger
	inquiries *services.InquiryService
}

func newContactHandler(inquiries *services.InquiryService) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder: NewResponder(logger),
		logger:    logger,
		inquiries: inquiries,
	}
}

// submit forwards a contact-form inquiry to the site owner
// @Summary Submit inquiry
// @Tags Contact
// @Accept json
// @Produce json
// @Param inquiry body services.Inquiry true "Inquiry"
// @Success 200 {object} OKResponse
// @Failure 400 {object} ErrorResponse "Missing name, email or message"
// @Failure 500 {object} ErrorResponse "Mail transport failed"
// @Router /api/contact [post]
func (h contactHandler) submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxContactBodySize)

		var in services.Inquiry
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("JSON", err))
			return
		}

		if err := h.inquiries.Submit(r.Context(), in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, OKResponse{OK: true})
	}
}
