package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"valetsite/internal/store"
)

type ImagesHandler struct {
	Log    *zap.Logger
	Images ImageSource
}

func (h ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("u")
	if u == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_url", "missing u")
		return
	}

	img, err := h.Images.Get(r.Context(), u)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrBadImageURL):
		WriteError(w, r, http.StatusBadRequest, "bad_url", "bad url")
		return
	case errors.Is(err, store.ErrHostNotAllowed):
		WriteError(w, r, http.StatusForbidden, "host_not_allowed", "host not allowed")
		return
	default:
		h.Log.Warn("image fetch failed", zap.String("url", u), zap.Error(err))
		WriteError(w, r, http.StatusBadGateway, "fetch_failed", "fetch failed")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Bytes)))
	w.Header().Set("Cache-Control", "public, max-age=604800")
	_, _ = w.Write(img.Bytes)
}
