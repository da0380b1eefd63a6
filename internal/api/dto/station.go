package dto

type StationResponse struct {
	StationID   uint16 `json:"station_id"`
	StationName string `json:"station_name"`
}

type StationListResponse struct {
	Stations []StationResponse `json:"stations"`
}
