package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/service"
	"github.com/shopspring/decimal"
)

// cardFilterFrom reads status, more_than and less_than, plus owner_id when
// withOwner is set.
func cardFilterFrom(r *http.Request, withOwner bool) (models.CardFilter, error) {
	q := r.URL.Query()
	var filter models.CardFilter

	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseCardStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	for key, dst := range map[string]**decimal.Decimal{"more_than": &filter.MoreThan, "less_than": &filter.LessThan} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, &requestError{message: "query parameter " + key + " must be a decimal number"}
		}
		*dst = &v
	}
	if withOwner {
		if raw := q.Get("owner_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return filter, &requestError{message: "query parameter owner_id must be an integer"}
			}
			filter.OwnerID = id
		}
	}
	return filter, nil
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	card, err := h.svc.Cards.CreateCard(r.Context(), principal(r).UserID, service.CreateCardInput{
		OwnerID:     req.OwnerID,
		Number:      req.CardNumber,
		ExpiryYear:  req.ExpiryYear,
		ExpiryMonth: req.ExpiryMonth,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(card))
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	filter, err := cardFilterFrom(r, true)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.Cards.ListCardsForAdmin(r.Context(), principal(r).UserID, filter, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPage(result, toCardResponse))
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.svc.Cards.GetCardForAdmin)
}

func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.svc.Cards.ActivateCard)
}

func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.svc.Cards.BlockCard)
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Cards.DeleteCard(r.Context(), principal(r).UserID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyCardIntegrity reports OK when the stored number decrypts and matches
// its last digits.
func (h *Handler) VerifyCardIntegrity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.svc.Cards.VerifyCardIntegrity(r.Context(), principal(r).UserID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, integrityResponse{CardID: id, Status: "OK"})
}

func (h *Handler) ListOwnCards(w http.ResponseWriter, r *http.Request) {
	filter, err := cardFilterFrom(r, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.Cards.ListCardsForOwner(r.Context(), principal(r).UserID, filter, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPage(result, toCardResponse))
}

func (h *Handler) GetOwnCard(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, http.StatusOK, h.svc.Cards.GetCardForOwner)
}

type cardAction func(ctx context.Context, callerID, cardID int64) (*models.Card, error)

func (h *Handler) withCard(w http.ResponseWriter, r *http.Request, status int, action cardAction) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	card, err := action(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, toCardResponse(card))
}
