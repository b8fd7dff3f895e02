package database

import (
	"github.com/google/uuid"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// RouteRepository handles database operations for the routes table
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create inserts a new route
func (r *RouteRepository) Create(route *models.Route) error {
	query := `
		INSERT INTO routes (id, name, source, destination, distance_km, estimated_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if route.ID == "" {
		route.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		route.ID, route.Name, route.Source, route.Destination,
		route.DistanceKM, route.EstimatedDurationMinutes,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
}

// GetByID retrieves a route by ID
func (r *RouteRepository) GetByID(routeID string) (*models.Route, error) {
	query := `
		SELECT id, name, source, destination, distance_km,
			   estimated_duration_minutes, created_at, updated_at
		FROM routes
		WHERE id = $1
	`

	route := &models.Route{}
	if err := r.db.Get(route, query, routeID); err != nil {
		return nil, err
	}
	return route, nil
}

// List retrieves all routes
func (r *RouteRepository) List() ([]models.Route, error) {
	query := `
		SELECT id, name, source, destination, distance_km,
			   estimated_duration_minutes, created_at, updated_at
		FROM routes
		ORDER BY name
	`

	routes := []models.Route{}
	if err := r.db.Select(&routes, query); err != nil {
		return nil, err
	}
	return routes, nil
}
