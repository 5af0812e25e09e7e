package handlers

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/lehigh-university-libraries/stitcher/internal/prefs"
)

type preferencesResponse struct {
	prefs.Values
	Themes []string `json:"themes"`
}

func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, preferencesResponse{Values: h.prefs.Values(), Themes: h.prefs.Themes()})
}

func (h *Handler) HandlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var updated prefs.Values
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if updated.Theme != "" && !slices.Contains(h.prefs.Themes(), updated.Theme) {
		h.writeError(w, "Unknown theme: "+updated.Theme, http.StatusBadRequest)
		return
	}

	values, err := h.prefs.Update(func(v *prefs.Values) {
		if updated.Theme != "" {
			v.Theme = updated.Theme
		}
		v.Border = updated.Border
	})
	if err != nil {
		h.writeError(w, "Failed to save preferences: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, preferencesResponse{Values: values, Themes: h.prefs.Themes()})
}
