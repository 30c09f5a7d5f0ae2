package handler

import (
	"net/http"

	"github.com/Dan9191/bankcards/internal/models"
)

// CreateTransfer moves money between two cards of the caller.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	transfer, err := h.svc.Transfers.TransferBetweenOwnCards(r.Context(), principal(r).UserID, req.FromCardID, req.ToCardID, *req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferResponse(transfer))
}

func (h *Handler) ListOwnTransfers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.Transfers.ListTransfersForOwner(r.Context(), principal(r).UserID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPage(result, toTransferResponse))
}

func (h *Handler) GetOwnTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	transfer, err := h.svc.Transfers.GetTransferForOwner(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(transfer))
}

// ListTransfers lists every transfer, optionally narrowed by owner_id.
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	ownerID, err := queryInt(r, "owner_id", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter := models.TransferFilter{OwnerID: int64(ownerID)}
	page, err := pageFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.Transfers.ListTransfersForAdmin(r.Context(), principal(r).UserID, filter, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPage(result, toTransferResponse))
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	transfer, err := h.svc.Transfers.GetTransferForAdmin(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(transfer))
}
