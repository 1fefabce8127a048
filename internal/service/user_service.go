package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService owns users, profiles and technician management.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser registers a new identity with a bcrypt-hashed password.
func (s *UserService) CreateUser(ctx context.Context, email, password, firstName, lastName string) (*model.User, error) {
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hash),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials, returning the user on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

// GetProfile returns nil, nil when the user has no profile yet; the policy
// layer creates one lazily.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *UserService) CreateProfile(ctx context.Context, userID string, role model.Role) (*model.Profile, error) {
	p := &model.Profile{UserID: userID, Role: role}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, role model.Role) (*model.Profile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return s.CreateProfile(ctx, userID, role)
	}
	if err := s.db.WithContext(ctx).Model(p).Update("role", role).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ListTechnicians returns every agent account joined with its profile.
func (s *UserService) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	var profiles []model.Profile
	if err := s.db.WithContext(ctx).Where("role = ?", model.RoleAgent).Find(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return []model.Technician{}, nil
	}
	ids := make([]string, 0, len(profiles))
	byUser := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
		byUser[p.UserID] = p
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	technicians := make([]model.Technician, 0, len(users))
	for _, u := range users {
		technicians = append(technicians, model.Technician{User: u, Profile: byUser[u.ID]})
	}
	return technicians, nil
}

// CreateTechnician registers a user and attaches an agent profile.
func (s *UserService) CreateTechnician(ctx context.Context, email, password, firstName, lastName string) (*model.User, error) {
	u, err := s.CreateUser(ctx, email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if _, err := s.CreateProfile(ctx, u.ID, model.RoleAgent); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteTechnician removes the profile first (foreign key), then the user.
func (s *UserService) DeleteTechnician(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Profile{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("id = ?", userID).Delete(&model.User{}).Error
}
