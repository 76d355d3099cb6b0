package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caixa/internal/core"
	"caixa/internal/log"
)

// Service orchestrates directory operations and the photo pipeline.
type Service struct {
	repo   Repo
	photos PhotoStore
	logger *log.Logger
	now    func() time.Time
}

// NewService creates a directory service. photos may be nil, in which case
// uploads are rejected with a validation error.
func NewService(repo Repo, photos PhotoStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default(log.ComponentUsers)
	}
	return &Service{repo: repo, photos: photos, logger: logger, now: time.Now}
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.Users(ctx)
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.User(ctx, id)
}

// Create validates and stores a new user; photo is the raw upload, nil when
// absent.
func (s *Service) Create(ctx context.Context, u User, photo []byte) (User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)
	u.CPF = strings.TrimSpace(u.CPF)
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	exists, err := s.repo.UserEmailExists(ctx, u.Email, 0)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return User{}, &core.ConflictError{Reason: "a user with this email already exists"}
	}

	u.CPF = FormatCPF(u.CPF)
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt

	if len(photo) > 0 {
		name, err := s.storePhoto(ctx, photo, 0)
		if err != nil {
			return User{}, err
		}
		u.Photo = name
	}

	saved, err := s.repo.AddUser(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("add user: %w", err)
	}
	s.logger.InfoContext(ctx, "User created", log.FieldUserID, saved.ID)
	return saved, nil
}

// Update validates and stores changes; a non-empty photo replaces the old
// one, which is removed best-effort.
func (s *Service) Update(ctx context.Context, id int64, u User, photo []byte) (User, error) {
	existing, err := s.repo.User(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.ID = id
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)
	u.CPF = strings.TrimSpace(u.CPF)
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	exists, err := s.repo.UserEmailExists(ctx, u.Email, id)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return User{}, &core.ConflictError{Reason: "a user with this email already exists"}
	}

	u.CPF = FormatCPF(u.CPF)
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = s.now()
	u.Photo = existing.Photo

	if len(photo) > 0 {
		if existing.Photo != "" {
			s.removePhoto(ctx, existing.Photo)
		}
		name, err := s.storePhoto(ctx, photo, id)
		if err != nil {
			return User{}, err
		}
		u.Photo = name
	}

	saved, err := s.repo.UpdateUser(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	s.logger.InfoContext(ctx, "User updated", log.FieldUserID, id)
	return saved, nil
}

// Delete removes a user and their photo.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.repo.User(ctx, id)
	if err != nil {
		return err
	}
	if u.Photo != "" {
		s.removePhoto(ctx, u.Photo)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "User removed", log.FieldUserID, id, "email", u.Email)
	return nil
}

// Search filters users by a case-insensitive term over name, email, CPF and
// phone. An empty term returns everyone.
func (s *Service) Search(ctx context.Context, term string) ([]User, error) {
	all, err := s.repo.Users(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}
	var out []User
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(strings.ToLower(u.Email), term) ||
			strings.Contains(u.CPF, term) ||
			strings.Contains(u.Phone, term) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Stats summarizes the directory.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.repo.Users(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(all)}
	for _, u := range all {
		if u.Photo != "" {
			st.WithPhoto++
		} else {
			st.WithoutPhoto++
		}
	}
	return st, nil
}

func (s *Service) storePhoto(ctx context.Context, raw []byte, userID int64) (string, error) {
	if s.photos == nil {
		return "", &core.ValidationError{Fields: []string{"photo"}, Msg: "photo uploads are not enabled"}
	}
	name, err := s.photos.Save(ctx, raw, userID)
	if err != nil {
		return "", fmt.Errorf("process photo: %w", err)
	}
	return name, nil
}

func (s *Service) removePhoto(ctx context.Context, name string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.Remove(ctx, name); err != nil {
		// Losing an orphan file must not fail the directory operation.
		s.logger.WarnContext(ctx, "Failed to remove photo", "photo", name, log.FieldError, err)
	}
}
