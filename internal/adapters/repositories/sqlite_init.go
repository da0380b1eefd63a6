package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createStationsQuery := `
	CREATE TABLE IF NOT EXISTS stations (
		station_id INTEGER PRIMARY KEY,
		station_name TEXT NOT NULL
	);
	`

	createCargoTypesQuery := `
	CREATE TABLE IF NOT EXISTS cargo_types (
		cargo_id INTEGER PRIMARY KEY,
		cargo_name TEXT NOT NULL,
		routing_mode TEXT NOT NULL DEFAULT 'auto'
	);
	`

	createWaitingCargoQuery := `
	CREATE TABLE IF NOT EXISTS waiting_cargo (
        station_id INTEGER NOT NULL,
        cargo_id INTEGER NOT NULL,
        source_id INTEGER NOT NULL,
        next_id INTEGER NOT NULL,
        count INTEGER NOT NULL
    );
	`

	createReservedCargoQuery := `
	CREATE TABLE IF NOT EXISTS reserved_cargo (
        station_id INTEGER NOT NULL,
        cargo_id INTEGER NOT NULL,
        count INTEGER NOT NULL,
        PRIMARY KEY (station_id, cargo_id)
    );
	`

	createFlowSharesQuery := `
	CREATE TABLE IF NOT EXISTS flow_shares (
        station_id INTEGER NOT NULL,
        cargo_id INTEGER NOT NULL,
        source_id INTEGER NOT NULL,
        seq INTEGER NOT NULL,
        threshold INTEGER NOT NULL,
        via_id INTEGER NOT NULL,
        PRIMARY KEY (station_id, cargo_id, source_id, seq)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_waiting_cargo_station_cargo
    ON waiting_cargo(station_id, cargo_id);
	`

	statements := []string{
		createStationsQuery,
		createCargoTypesQuery,
		createWaitingCargoQuery,
		createReservedCargoQuery,
		createFlowSharesQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StationSeed struct {
	StationID   uint16 `json:"station_id"`
	StationName string `json:"station_name"`
}

type CargoSeed struct {
	CargoID     uint8  `json:"cargo_id"`
	CargoName   string `json:"cargo_name"`
	RoutingMode string `json:"routing_mode"`
}

type WaitingSeed struct {
	StationID uint16 `json:"station_id"`
	CargoID   uint8  `json:"cargo_id"`
	SourceID  uint16 `json:"source_id"`
	NextID    uint16 `json:"next_id"`
	Count     uint   `json:"count"`
}

type ReservedSeed struct {
	StationID uint16 `json:"station_id"`
	CargoID   uint8  `json:"cargo_id"`
	Count     uint   `json:"count"`
}

type FlowShareSeed struct {
	StationID uint16 `json:"station_id"`
	CargoID   uint8  `json:"cargo_id"`
	SourceID  uint16 `json:"source_id"`
	Seq       int    `json:"seq"`
	Threshold uint   `json:"threshold"`
	ViaID     uint16 `json:"via_id"`
}

type NetworkSeed struct {
	Stations      []StationSeed   `json:"stations"`
	CargoTypes    []CargoSeed     `json:"cargo_types"`
	WaitingCargo  []WaitingSeed   `json:"waiting_cargo"`
	ReservedCargo []ReservedSeed  `json:"reserved_cargo"`
	FlowShares    []FlowShareSeed `json:"flow_shares"`
}

// Populate the database with a network snapshot from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed network: read %q: %w", jsonPath, err)
	}

	var seed NetworkSeed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return fmt.Errorf("seed network: parse json: %w", err)
	}

	for i, st := range seed.Stations {
		if strings.TrimSpace(st.StationName) == "" {
			return fmt.Errorf("seed network: station at index %d: name cannot be empty", i+1)
		}
	}
	for i, c := range seed.CargoTypes {
		switch c.RoutingMode {
		case "", "auto", "manual":
		default:
			return fmt.Errorf("seed network: cargo at index %d: unknown routing_mode %q", i+1, c.RoutingMode)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed network: begin tx: %w", err)
	}
	defer tx.Rollback()

	stationStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO stations (station_id, station_name)
	VALUES (?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed network: prepare station insert: %w", err)
	}
	defer stationStmt.Close()

	for _, st := range seed.Stations {
		if _, err := stationStmt.Exec(st.StationID, st.StationName); err != nil {
			return fmt.Errorf("seed network: insert station_id=%d: %w", st.StationID, err)
		}
	}

	cargoStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO cargo_types (cargo_id, cargo_name, routing_mode)
	VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed network: prepare cargo insert: %w", err)
	}
	defer cargoStmt.Close()

	for _, c := range seed.CargoTypes {
		mode := c.RoutingMode
		if mode == "" {
			mode = "auto"
		}
		if _, err := cargoStmt.Exec(c.CargoID, c.CargoName, mode); err != nil {
			return fmt.Errorf("seed network: insert cargo_id=%d: %w", c.CargoID, err)
		}
	}

	waitingStmt, err := tx.Prepare(`
	INSERT INTO waiting_cargo (station_id, cargo_id, source_id, next_id, count)
	VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed network: prepare waiting insert: %w", err)
	}
	defer waitingStmt.Close()

	for _, wc := range seed.WaitingCargo {
		if _, err := waitingStmt.Exec(wc.StationID, wc.CargoID, wc.SourceID, wc.NextID, wc.Count); err != nil {
			return fmt.Errorf("seed network: insert waiting cargo station_id=%d: %w", wc.StationID, err)
		}
	}

	reservedStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO reserved_cargo (station_id, cargo_id, count)
	VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed network: prepare reserved insert: %w", err)
	}
	defer reservedStmt.Close()

	for _, rc := range seed.ReservedCargo {
		if _, err := reservedStmt.Exec(rc.StationID, rc.CargoID, rc.Count); err != nil {
			return fmt.Errorf("seed network: insert reserved cargo station_id=%d: %w", rc.StationID, err)
		}
	}

	flowStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO flow_shares (station_id, cargo_id, source_id, seq, threshold, via_id)
	VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed network: prepare flow insert: %w", err)
	}
	defer flowStmt.Close()

	for _, fs := range seed.FlowShares {
		if _, err := flowStmt.Exec(fs.StationID, fs.CargoID, fs.SourceID, fs.Seq, fs.Threshold, fs.ViaID); err != nil {
			return fmt.Errorf("seed network: insert flow share station_id=%d source_id=%d: %w", fs.StationID, fs.SourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed network: commit tx: %w", err)
	}

	return nil
}
