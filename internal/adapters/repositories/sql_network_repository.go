package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"station-cargo-service/internal/domain"
	"station-cargo-service/internal/platform/obs"
)

// SQL-backed implementation of the NetworkRepository port. The snapshot
// queries carry no parameters, so the same implementation serves both the
// local SQLite file and a provisioned Postgres.
type SQLNetworkRepository struct{ DB *sql.DB }

func NewSQLNetworkRepository(db *sql.DB) *SQLNetworkRepository {
	return &SQLNetworkRepository{DB: db}
}

// LoadNetwork reads the full station network snapshot.
func (s *SQLNetworkRepository) LoadNetwork(ctx context.Context) (_ *domain.Network, err error) {
	defer obs.Time(ctx, "network.repo.LoadNetwork")(&err)

	if s.DB == nil {
		return nil, errors.New("network repository: DB is nil")
	}

	net := domain.NewNetwork()

	if err := s.loadStations(ctx, net); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	if err := s.loadCargoTypes(ctx, net); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	if err := s.loadWaitingCargo(ctx, net); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	if err := s.loadReservedCargo(ctx, net); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	if err := s.loadFlowShares(ctx, net); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}

	return net, nil
}

func (s *SQLNetworkRepository) loadStations(ctx context.Context, net *domain.Network) error {
	query := `
	SELECT
		station_id,
		station_name
	FROM stations
	ORDER BY station_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query stations table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uint16
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan station row: %w", err)
		}
		net.AddStation(domain.StationID(id), name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("station row iteration: %w", err)
	}

	return nil
}

func (s *SQLNetworkRepository) loadCargoTypes(ctx context.Context, net *domain.Network) error {
	query := `
	SELECT
		cargo_id,
		routing_mode
	FROM cargo_types
	ORDER BY cargo_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query cargo_types table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uint8
		var mode string
		if err := rows.Scan(&id, &mode); err != nil {
			return fmt.Errorf("scan cargo type row: %w", err)
		}
		routing := domain.RoutingAuto
		if mode == "manual" {
			routing = domain.RoutingManual
		}
		net.AddCargo(domain.CargoType(id), routing)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("cargo type row iteration: %w", err)
	}

	return nil
}

func (s *SQLNetworkRepository) loadWaitingCargo(ctx context.Context, net *domain.Network) error {
	query := `
	SELECT
		station_id,
		cargo_id,
		source_id,
		next_id,
		count
	FROM waiting_cargo
	ORDER BY station_id, cargo_id, next_id, source_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query waiting_cargo table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var station, source, next uint16
		var cargo uint8
		var count uint
		if err := rows.Scan(&station, &cargo, &source, &next, &count); err != nil {
			return fmt.Errorf("scan waiting cargo row: %w", err)
		}
		net.AddWaiting(domain.StationID(station), domain.CargoType(cargo), domain.WaitingCargo{
			Source: domain.StationID(source),
			Next:   domain.StationID(next),
			Count:  count,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("waiting cargo row iteration: %w", err)
	}

	return nil
}

func (s *SQLNetworkRepository) loadReservedCargo(ctx context.Context, net *domain.Network) error {
	query := `
	SELECT
		station_id,
		cargo_id,
		count
	FROM reserved_cargo
	ORDER BY station_id, cargo_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query reserved_cargo table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var station uint16
		var cargo uint8
		var count uint
		if err := rows.Scan(&station, &cargo, &count); err != nil {
			return fmt.Errorf("scan reserved cargo row: %w", err)
		}
		net.SetReserved(domain.StationID(station), domain.CargoType(cargo), count)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reserved cargo row iteration: %w", err)
	}

	return nil
}

func (s *SQLNetworkRepository) loadFlowShares(ctx context.Context, net *domain.Network) error {
	// seq preserves the cumulative threshold order within one source.
	query := `
	SELECT
		station_id,
		cargo_id,
		source_id,
		threshold,
		via_id
	FROM flow_shares
	ORDER BY station_id, cargo_id, source_id, seq;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query flow_shares table: %w", err)
	}
	defer rows.Close()

	type flowKey struct {
		station domain.StationID
		cargo   domain.CargoType
		source  domain.StationID
	}
	grouped := make(map[flowKey]domain.FlowShares)
	order := make([]flowKey, 0, 16)

	for rows.Next() {
		var station, source, via uint16
		var cargo uint8
		var threshold uint
		if err := rows.Scan(&station, &cargo, &source, &threshold, &via); err != nil {
			return fmt.Errorf("scan flow share row: %w", err)
		}
		k := flowKey{
			station: domain.StationID(station),
			cargo:   domain.CargoType(cargo),
			source:  domain.StationID(source),
		}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], domain.FlowShare{
			Threshold: threshold,
			Via:       domain.StationID(via),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("flow share row iteration: %w", err)
	}

	for _, k := range order {
		net.SetFlow(k.station, k.cargo, k.source, grouped[k])
	}

	return nil
}
