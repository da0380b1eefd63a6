package handlers

import (
	"net/http"

	"station-cargo-service/internal/api/dto"
	"station-cargo-service/internal/ports"
)

type StationHandler struct {
	Repo ports.NetworkRepository
}

// List handles GET /stations.
func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	net, err := h.Repo.LoadNetwork(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to load network")
		return
	}

	ids := net.StationIDs()
	stations := make([]dto.StationResponse, 0, len(ids))
	for _, id := range ids {
		name, _ := net.StationName(id)
		stations = append(stations, dto.StationResponse{
			StationID:   uint16(id),
			StationName: name,
		})
	}

	writeJSON(w, r, http.StatusOK, dto.StationListResponse{Stations: stations})
}
