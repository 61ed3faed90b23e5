package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/pkg/validator"
)

type AuthService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	tokenLifetime time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenLifetime time.Duration) *AuthService {
	if tokenLifetime <= 0 {
		tokenLifetime = 72 * time.Hour
	}
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		tokenLifetime: tokenLifetime,
	}
}

// Register creates a student or instructor account. Admins are never
// self-registered; they are seeded or promoted by another admin.
func (s *AuthService) Register(req models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validator.ValidateEmail(email) {
		return nil, newValidationError("invalid email address")
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err == nil && existing != nil {
		return nil, newValidationError("user with this email already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	existing, err = s.userRepo.GetByUsername(req.Username)
	if err == nil && existing != nil {
		return nil, newValidationError("user with this username already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := authorization.RoleStudent
	if req.Role != "" {
		parsed, ok := authorization.ParseUserRole(req.Role)
		if !ok || parsed == authorization.RoleAdmin {
			return nil, newValidationError("role must be student or instructor")
		}
		role = parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}

	if err := s.userRepo.Create(user); err != nil {
		if isDuplicateKeyError(err) {
			return nil, newValidationError("user already exists")
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(req models.LoginRequest) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role.String(),
		"exp":      time.Now().Add(s.tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// RefreshToken issues a new token for the holder of a still-valid one.
func (s *AuthService) RefreshToken(current string) (string, *models.User, error) {
	token, err := s.ValidateToken(current)
	if err != nil || !token.Valid {
		return "", nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", nil, errors.New("invalid token claims")
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return "", nil, errors.New("invalid token claims")
	}

	user, err := s.userRepo.GetByID(uint(rawID))
	if err != nil {
		return "", nil, err
	}

	refreshed, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return refreshed, user, nil
}
