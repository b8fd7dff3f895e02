package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/himaltransit/fleet-booking-backend/pkg/validator"
)

// CustomerRole distinguishes back-office staff from regular customers
type CustomerRole string

const (
	CustomerRoleCustomer CustomerRole = "customer"
	CustomerRoleStaff    CustomerRole = "staff"
	CustomerRoleAdmin    CustomerRole = "admin"
)

// VerificationStatus tracks account verification
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
)

var phoneValidator = validator.NewPhoneValidator()

// Customer represents an account that can book tickets and request
// charter reservations. Staff and admin accounts share the table and
// are distinguished by role.
type Customer struct {
	ID                 string             `json:"id" db:"id"`
	Username           string             `json:"username" db:"username"`
	Email              string             `json:"email" db:"email"`
	FirstName          string             `json:"first_name" db:"first_name"`
	LastName           string             `json:"last_name" db:"last_name"`
	Phone              string             `json:"phone" db:"phone"`
	PasswordHash       string             `json:"-" db:"password_hash"`
	Role               CustomerRole       `json:"role" db:"role"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	IsActive           bool               `json:"is_active" db:"is_active"`
	LastLogin          *time.Time         `json:"last_login,omitempty" db:"last_login"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// FullName returns the customer's display name
func (c *Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// IsStaff reports whether the account belongs to back-office staff
func (c *Customer) IsStaff() bool {
	return c.Role == CustomerRoleStaff || c.Role == CustomerRoleAdmin
}

// SetPassword hashes and stores the given plaintext password
func (c *Customer) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (c *Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// RegisterRequest represents the request to create a customer account
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
}

// Validate validates the registration request and normalizes the phone number
func (r *RegisterRequest) Validate() error {
	sanitized, err := phoneValidator.Validate(r.Phone)
	if err != nil {
		return err
	}
	r.Phone = sanitized
	return nil
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the token pair issued on login
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Customer     *Customer `json:"customer"`
}
