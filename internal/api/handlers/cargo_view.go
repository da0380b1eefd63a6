package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"station-cargo-service/internal/api/dto"
	"station-cargo-service/internal/domain"
	"station-cargo-service/internal/ports"
	"station-cargo-service/internal/services"
)

// CargoViewHandler serves the grouped cargo summary for a station. It keeps
// one CargoView per station so destination estimates survive across requests,
// and confines all view access behind a single mutex.
type CargoViewHandler struct {
	Repo  ports.NetworkRepository
	Cache ports.ViewCache

	mu    sync.Mutex
	views map[domain.StationID]*services.CargoView
}

func NewCargoViewHandler(repo ports.NetworkRepository, cache ports.ViewCache) *CargoViewHandler {
	return &CargoViewHandler{
		Repo:  repo,
		Cache: cache,
		views: make(map[domain.StationID]*services.CargoView),
	}
}

// Show handles GET /cargo.
//
// Query parameters:
//
//	station  - required station id
//	mode     - "waiting" (default) or "planned"
//	group_by - comma-separated permutation of source,next,destination
//	sort_by  - "grouping" (default) or "count"
//	order    - "asc" (default) or "desc"
func (h *CargoViewHandler) Show(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	station, err := parseStationID(r.URL.Query().Get("station"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := parseViewConfig(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	variant := viewVariant(cfg)
	if h.Cache != nil {
		payload, ok, err := h.Cache.Get(r.Context(), station, variant)
		if err != nil {
			log.Printf("view cache get failed: station=%d err=%v", station, err)
		} else if ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(payload)
			return
		}
	}

	net, err := h.Repo.LoadNetwork(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to load network")
		return
	}
	if _, ok := net.StationName(station); !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown station %d", station))
		return
	}

	h.mu.Lock()
	view, ok := h.views[station]
	if !ok {
		view, err = services.NewCargoView(station, cfg)
		if err == nil {
			h.views[station] = view
		}
	} else {
		err = view.Configure(cfg)
	}
	if err != nil {
		h.mu.Unlock()
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	root := view.Rebuild(net)
	h.mu.Unlock()

	resp := dto.BuildCargoView(station, cfg.Mode.String(), root, net)
	payload, err := json.Marshal(resp)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to encode view")
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Put(r.Context(), station, variant, payload); err != nil {
			log.Printf("view cache put failed: station=%d err=%v", station, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// Invalidate handles POST /invalidate. It drops cached destination estimates
// for a station, either for one cargo type or entirely, along with any cached
// rendered snapshots.
func (h *CargoViewHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	station, err := parseStationID(r.URL.Query().Get("station"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	if view, ok := h.views[station]; ok {
		if raw := r.URL.Query().Get("cargo"); raw != "" {
			cargo, err := strconv.ParseUint(raw, 10, 8)
			if err != nil {
				h.mu.Unlock()
				writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid cargo id %q", raw))
				return
			}
			view.Invalidate(domain.CargoType(cargo))
		} else {
			view.InvalidateAll()
		}
	}
	h.mu.Unlock()

	if h.Cache != nil {
		if err := h.Cache.Drop(r.Context(), station); err != nil {
			log.Printf("view cache drop failed: station=%d err=%v", station, err)
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "invalidated"})
}

func parseStationID(raw string) (domain.StationID, error) {
	if raw == "" {
		return 0, fmt.Errorf("station query parameter is required")
	}
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid station id %q", raw)
	}
	return domain.StationID(id), nil
}

func parseViewConfig(r *http.Request) (services.Config, error) {
	cfg := services.DefaultConfig()
	q := r.URL.Query()

	switch q.Get("mode") {
	case "", "waiting":
		cfg.Mode = services.ModeWaiting
	case "planned":
		cfg.Mode = services.ModePlanned
	default:
		return cfg, fmt.Errorf("unknown mode %q", q.Get("mode"))
	}

	if raw := q.Get("group_by"); raw != "" {
		parts := strings.Split(raw, ",")
		if len(parts) != 3 {
			return cfg, fmt.Errorf("group_by needs exactly three columns, got %d", len(parts))
		}
		for i, p := range parts {
			g, err := services.ParseGrouping(strings.TrimSpace(p))
			if err != nil {
				return cfg, err
			}
			cfg.Groupings[i] = g
		}
	}

	switch q.Get("sort_by") {
	case "", "grouping":
	case "count":
		cfg.SortByCount = true
	default:
		return cfg, fmt.Errorf("unknown sort_by %q", q.Get("sort_by"))
	}

	switch q.Get("order") {
	case "", "asc":
		cfg.SortOrder = domain.Ascending
	case "desc":
		cfg.SortOrder = domain.Descending
	default:
		return cfg, fmt.Errorf("unknown order %q", q.Get("order"))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// viewVariant keys cached snapshots by everything that changes the rendered
// output.
func viewVariant(cfg services.Config) string {
	sortBy := "grouping"
	if cfg.SortByCount {
		sortBy = "count"
	}
	order := "asc"
	if cfg.SortOrder == domain.Descending {
		order = "desc"
	}
	return fmt.Sprintf("%s:%s,%s,%s:%s:%s",
		cfg.Mode, cfg.Groupings[0], cfg.Groupings[1], cfg.Groupings[2], sortBy, order)
}
