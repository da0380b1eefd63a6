package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"station-cargo-service/internal/domain"
	"station-cargo-service/internal/platform/obs"
)

// HTTPNetworkSource loads the station network snapshot from an upstream feed
// endpoint instead of a local database. It implements the NetworkRepository
// port.
type HTTPNetworkSource struct {
	baseURL string
	apiKey  string
	session *http.Client
}

func NewHTTPNetworkSource(baseURL, apiKey string, client *http.Client) *HTTPNetworkSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPNetworkSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		session: client,
	}
}

// Wire document served by the feed. Thresholds within one source are
// cumulative and ordered by seq.
type snapshotDocument struct {
	Stations []struct {
		StationID   uint16 `json:"station_id"`
		StationName string `json:"station_name"`
	} `json:"stations"`
	CargoTypes []struct {
		CargoID     uint8  `json:"cargo_id"`
		RoutingMode string `json:"routing_mode"`
	} `json:"cargo_types"`
	WaitingCargo []struct {
		StationID uint16 `json:"station_id"`
		CargoID   uint8  `json:"cargo_id"`
		SourceID  uint16 `json:"source_id"`
		NextID    uint16 `json:"next_id"`
		Count     uint   `json:"count"`
	} `json:"waiting_cargo"`
	ReservedCargo []struct {
		StationID uint16 `json:"station_id"`
		CargoID   uint8  `json:"cargo_id"`
		Count     uint   `json:"count"`
	} `json:"reserved_cargo"`
	FlowShares []struct {
		StationID uint16 `json:"station_id"`
		CargoID   uint8  `json:"cargo_id"`
		SourceID  uint16 `json:"source_id"`
		Threshold uint   `json:"threshold"`
		ViaID     uint16 `json:"via_id"`
	} `json:"flow_shares"`
}

// LoadNetwork fetches /network from the feed and assembles the snapshot.
func (h *HTTPNetworkSource) LoadNetwork(ctx context.Context) (_ *domain.Network, err error) {
	defer obs.Time(ctx, "network.feed.LoadNetwork")(&err)

	resp, err := h.doWithRetry(ctx, func() (*http.Request, error) {
		return h.newRequest(ctx, http.MethodGet, h.baseURL+"/network")
	})
	if err != nil {
		return nil, fmt.Errorf("fetch network snapshot: %w", err)
	}
	defer resp.Body.Close()

	var doc snapshotDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode network snapshot: %w", err)
	}

	net := domain.NewNetwork()
	for _, st := range doc.Stations {
		net.AddStation(domain.StationID(st.StationID), st.StationName)
	}
	for _, c := range doc.CargoTypes {
		mode := domain.RoutingAuto
		if c.RoutingMode == "manual" {
			mode = domain.RoutingManual
		}
		net.AddCargo(domain.CargoType(c.CargoID), mode)
	}
	for _, wc := range doc.WaitingCargo {
		net.AddWaiting(domain.StationID(wc.StationID), domain.CargoType(wc.CargoID), domain.WaitingCargo{
			Source: domain.StationID(wc.SourceID),
			Next:   domain.StationID(wc.NextID),
			Count:  wc.Count,
		})
	}
	for _, rc := range doc.ReservedCargo {
		net.SetReserved(domain.StationID(rc.StationID), domain.CargoType(rc.CargoID), rc.Count)
	}

	type flowKey struct {
		station domain.StationID
		cargo   domain.CargoType
		source  domain.StationID
	}
	grouped := make(map[flowKey]domain.FlowShares)
	order := make([]flowKey, 0, len(doc.FlowShares))
	for _, fs := range doc.FlowShares {
		k := flowKey{
			station: domain.StationID(fs.StationID),
			cargo:   domain.CargoType(fs.CargoID),
			source:  domain.StationID(fs.SourceID),
		}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], domain.FlowShare{
			Threshold: fs.Threshold,
			Via:       domain.StationID(fs.ViaID),
		})
	}
	for _, k := range order {
		net.SetFlow(k.station, k.cargo, k.source, grouped[k])
	}

	return net, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (h *HTTPNetworkSource) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if h.apiKey != "" {
		req.Header.Set("Authorization", h.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (h *HTTPNetworkSource) do(req *http.Request) (*http.Response, error) {
	resp, err := h.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 5xx responses)
// using exponential backoff while respecting context cancellation.
func (h *HTTPNetworkSource) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := h.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
