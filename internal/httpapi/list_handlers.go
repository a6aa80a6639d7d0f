package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"valetsite/internal/content"
)

// ListHandler exposes one collection as JSON.
type ListHandler struct {
	Log        *zap.Logger
	Store      content.Store
	Collection string
}

func (h ListHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.FetchAll(r.Context(), h.Collection)
	if err != nil {
		h.Log.Error("list fetch failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("collection", h.Collection),
			zap.Error(err))
		WriteError(w, r, http.StatusBadGateway, "store_unavailable", "could not load "+h.Collection)
		return
	}
	if res.Items == nil {
		res.Items = []content.Record{}
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, res)
}
