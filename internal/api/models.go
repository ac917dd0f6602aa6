package api

import "smartpark/internal/entities"

// Simulation
type SetSimulationRequest struct {
	Running *bool `json:"running"`
}
type SimulationResponse struct {
	Running bool `json:"running"`
}

// Selection
type SelectionRequest struct {
	ID string `json:"id"`
}

// Spot edits
type UpdateSpotRequest = entities.SpotUpdate

// Auth
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type LoginResponse struct {
	Token string `json:"token"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Version    uint64 `json:"version"`
	Simulating bool   `json:"isSimulating"`
	Analysis   bool   `json:"analysisEnabled"`
	Database   string `json:"database"`
}
