package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"punchcard/config"
	"punchcard/internal/auth"
	"punchcard/internal/domain"
	"punchcard/internal/models"
	"punchcard/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists   = errors.New("email already registered")
	ErrInvalidCreds  = errors.New("invalid email or password")
	ErrResetExpired  = errors.New("reset token invalid or expired")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
)

const resetTokenTTL = time.Hour

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	mailer   *MailService
	db       *gorm.DB
}

func NewAuthService(cfg *config.Config, db *gorm.DB, userRepo *repository.UserRepository, mailer *MailService) *AuthService {
	return &AuthService{cfg: cfg, db: db, userRepo: userRepo, mailer: mailer}
}

func (s *AuthService) issueTokens(u *models.User) (access, refresh string) {
	var cardID uint
	if u.ActiveCardID != nil {
		cardID = *u.ActiveCardID
	}
	access, _ = auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role, cardID)
	refresh, _ = auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return access, refresh
}

func (s *AuthService) Register(email, password, ownerName, businessName string) (*models.User, string, string, error) {
	if len(password) < 8 {
		return nil, "", "", ErrWeakPassword
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:              email,
		PasswordHash:       string(hash),
		Name:               ownerName,
		BusinessName:       businessName,
		Role:               domain.RoleMerchant,
		SubscriptionPlan:   domain.PlanNone,
		SubscriptionStatus: domain.SubscriptionNone,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	access, refresh := s.issueTokens(u)
	return u, access, refresh, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if u.PasswordHash == "" {
		return nil, "", "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, refresh := s.issueTokens(u)
	return u, access, refresh, nil
}

// LoginWithGoogle finds or creates a merchant for a Google identity and
// returns user + tokens + isNew flag.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		access, refresh := s.issueTokens(u)
		return u, access, refresh, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}
	existing, _ := s.userRepo.GetByEmail(email)
	if existing != nil {
		// Link Google identity to the password account.
		gid := googleID
		existing.GoogleID = &gid
		if avatarURL != "" {
			existing.AvatarURL = avatarURL
		}
		if err := s.userRepo.Update(existing); err != nil {
			return nil, "", "", false, err
		}
		access, refresh := s.issueTokens(existing)
		return existing, access, refresh, false, nil
	}
	gid := googleID
	business := name
	if business == "" {
		business = strings.Split(email, "@")[0]
	}
	u = &models.User{
		Email:              email,
		Name:               name,
		BusinessName:       business,
		GoogleID:           &gid,
		AvatarURL:          avatarURL,
		Role:               domain.RoleMerchant,
		SubscriptionPlan:   domain.PlanNone,
		SubscriptionStatus: domain.SubscriptionNone,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", false, err
	}
	access, refresh := s.issueTokens(u)
	return u, access, refresh, true, nil
}

// ChangePassword requires the current password first.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrInvalidCreds
	}
	if u.PasswordHash == "" {
		return errors.New("account uses Google sign-in; use password reset to set one")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.userRepo.Update(u)
}

// RequestPasswordReset emails a single-use reset link. Always succeeds from
// the caller's point of view so the endpoint cannot be used to probe emails.
func (s *AuthService) RequestPasswordReset(email string) error {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	rec := &models.PasswordResetToken{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.Create(rec).Error; err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.AppURL, token)
	if s.mailer != nil {
		return s.mailer.SendPasswordReset(u.Email, u.Name, link)
	}
	return nil
}

func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	var rec models.PasswordResetToken
	err := s.db.Where("token = ?", token).First(&rec).Error
	if err != nil {
		return ErrResetExpired
	}
	if rec.UsedAt != nil || time.Now().After(rec.ExpiresAt) {
		return ErrResetExpired
	}
	u, err := s.userRepo.GetByID(rec.UserID)
	if err != nil {
		return ErrResetExpired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	if err := s.userRepo.Update(u); err != nil {
		return err
	}
	now := time.Now()
	return s.db.Model(&rec).Update("used_at", &now).Error
}

func (s *AuthService) RefreshToken(refreshToken string) (access, refresh string, err error) {
	token, err := jwt.ParseWithClaims(refreshToken, &jwt.RegisteredClaims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", auth.ErrInvalidToken
	}
	claims := token.Claims.(*jwt.RegisteredClaims)
	var userID uint
	fmt.Sscanf(claims.Subject, "%d", &userID)
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", "", err
	}
	access, refresh = s.issueTokens(u)
	return access, refresh, nil
}
