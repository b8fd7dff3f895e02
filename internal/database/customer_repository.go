package database

import (
	"github.com/google/uuid"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// CustomerRepository handles database operations for the customers table
type CustomerRepository struct {
	db DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer
func (r *CustomerRepository) Create(customer *models.Customer) error {
	query := `
		INSERT INTO customers (
			id, username, email, first_name, last_name, phone, password_hash,
			role, verification_status, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if customer.Role == "" {
		customer.Role = models.CustomerRoleCustomer
	}
	if customer.VerificationStatus == "" {
		customer.VerificationStatus = models.VerificationPending
	}

	return r.db.QueryRow(
		query,
		customer.ID, customer.Username, customer.Email, customer.FirstName,
		customer.LastName, customer.Phone, customer.PasswordHash,
		customer.Role, customer.VerificationStatus, customer.IsActive,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(customerID string) (*models.Customer, error) {
	query := `
		SELECT id, username, email, first_name, last_name, phone, password_hash,
			   role, verification_status, is_active, last_login,
			   created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	customer := &models.Customer{}
	if err := r.db.Get(customer, query, customerID); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetByEmail retrieves a customer by email
func (r *CustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	query := `
		SELECT id, username, email, first_name, last_name, phone, password_hash,
			   role, verification_status, is_active, last_login,
			   created_at, updated_at
		FROM customers
		WHERE email = $1
	`

	customer := &models.Customer{}
	if err := r.db.Get(customer, query, email); err != nil {
		return nil, err
	}
	return customer, nil
}

// EmailOrUsernameExists checks whether an account already uses the email
// or username
func (r *CustomerRepository) EmailOrUsernameExists(email, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1 OR username = $2)`

	var exists bool
	if err := r.db.Get(&exists, query, email, username); err != nil {
		return false, err
	}
	return exists, nil
}

// TouchLastLogin stamps a customer's last login time
func (r *CustomerRepository) TouchLastLogin(customerID string) error {
	query := `UPDATE customers SET last_login = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(query, customerID)
	return err
}

// ListStaff retrieves every active staff or admin account, used when a
// notification fans out to the back office.
func (r *CustomerRepository) ListStaff() ([]models.Customer, error) {
	query := `
		SELECT id, username, email, first_name, last_name, phone, password_hash,
			   role, verification_status, is_active, last_login,
			   created_at, updated_at
		FROM customers
		WHERE role IN ('staff', 'admin') AND is_active = TRUE
		ORDER BY username
	`

	staff := []models.Customer{}
	if err := r.db.Select(&staff, query); err != nil {
		return nil, err
	}
	return staff, nil
}
