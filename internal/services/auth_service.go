package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/pkg/jwt"
)

// ErrInvalidCredentials is returned on a failed login attempt. The caller
// maps it to 401 without revealing whether the email or password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles account registration and login
type AuthService struct {
	customerRepo  *database.CustomerRepository
	jwtService    *jwt.Service
	notifications *NotificationService
	logger        *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	customerRepo *database.CustomerRepository,
	jwtService *jwt.Service,
	notifications *NotificationService,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		customerRepo:  customerRepo,
		jwtService:    jwtService,
		notifications: notifications,
		logger:        logger,
	}
}

// Register creates a customer account
func (s *AuthService) Register(req *models.RegisterRequest) (*models.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("phone", err.Error())
	}

	exists, err := s.customerRepo.EmailOrUsernameExists(req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("customer", "", "email or username already registered")
	}

	customer := &models.Customer{
		Username:           req.Username,
		Email:              req.Email,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Role:               models.CustomerRoleCustomer,
		VerificationStatus: models.VerificationPending,
		IsActive:           true,
	}
	if err := customer.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.customerRepo.Create(customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": customer.ID,
		"username":    customer.Username,
	}).Info("Customer registered")
	return customer, nil
}

// Login verifies credentials and issues a token pair. The user agent is
// only used to describe the device in the login notification.
func (s *AuthService) Login(req *models.LoginRequest, userAgent string) (*models.AuthResponse, error) {
	customer, err := s.customerRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if !customer.IsActive || !customer.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	response, err := s.issueTokens(customer)
	if err != nil {
		return nil, err
	}

	if err := s.customerRepo.TouchLastLogin(customer.ID); err != nil {
		s.logger.WithError(err).WithField("customer_id", customer.ID).Warn("Failed to record last login")
	}

	s.notifications.NotifyCustomer(
		customer.ID,
		models.NotificationSystem,
		"New login",
		fmt.Sprintf("Your account was signed in from %s", deviceLabel(userAgent)),
		nil, nil,
	)

	s.logger.WithFields(logrus.Fields{
		"customer_id": customer.ID,
		"role":        customer.Role,
	}).Info("Customer logged in")
	return response, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *AuthService) Refresh(refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	customer, err := s.customerRepo.GetByID(claims.CustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if !customer.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(customer)
}

// GetCustomer retrieves a customer by ID
func (s *AuthService) GetCustomer(customerID string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("customer", customerID)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return customer, nil
}

func (s *AuthService) issueTokens(customer *models.Customer) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(customer.ID, customer.Email, string(customer.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(customer.ID, customer.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt, err := s.jwtService.GetTokenExpiry(accessToken)
	if err != nil {
		expiresAt = time.Now()
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Customer:     customer,
	}, nil
}

// deviceLabel renders a user agent as a short human-readable device name
func deviceLabel(rawUserAgent string) string {
	if rawUserAgent == "" {
		return "an unknown device"
	}
	ua := user_agent.New(rawUserAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		return "an unknown device"
	}
	if ua.OS() == "" {
		return browser
	}
	return fmt.Sprintf("%s on %s", browser, ua.OS())
}
