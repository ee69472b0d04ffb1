package service

import (
	"errors"
	"strings"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/util"
	"gorm.io/gorm"
)

// GuestInfoInput is the personal data a guest submits with an order. Name
// may arrive split (first/last) or combined; the combined form is split on
// the first space.
type GuestInfoInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`

	CreateAccount bool   `json:"create_account"`
	Password      string `json:"password"`
}

// PersonalInfo is the resolved customer snapshot stamped onto an order at
// creation time. It is never re-synced from the account afterwards.
type PersonalInfo struct {
	UserID     *uint
	IsGuest    bool
	GuestEmail string

	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	ZipCode string
	Country string
}

type CustomerService interface {
	// ResolveAccountInfo builds the snapshot from a registered account and
	// fails with IncompleteProfileError when required fields are blank.
	ResolveAccountInfo(userID uint) (*PersonalInfo, error)
	// ResolveGuestInfo validates guest-submitted fields, reporting every
	// missing one, and optionally provisions an account that becomes the
	// order's owner.
	ResolveGuestInfo(input GuestInfoInput) (*PersonalInfo, error)
}

type customerService struct {
	userRepo repository.UserRepository
}

func NewCustomerService(userRepo repository.UserRepository) CustomerService {
	return &customerService{userRepo: userRepo}
}

func (s *customerService) ResolveAccountInfo(userID uint) (*PersonalInfo, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", user.Name},
		{"email", user.Email},
		{"phone", user.Phone},
		{"address", user.Address},
		{"city", user.City},
		{"state", user.State},
		{"zip_code", user.ZipCode},
		{"country", user.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		logger.Warn("Order intake blocked by incomplete profile", map[string]interface{}{
			"user_id": userID,
			"missing": missing,
		})
		return nil, &IncompleteProfileError{Missing: missing}
	}

	id := user.ID
	return &PersonalInfo{
		UserID:  &id,
		Name:    user.Name,
		Email:   user.Email,
		Phone:   user.Phone,
		Address: user.Address,
		City:    user.City,
		State:   user.State,
		ZipCode: user.ZipCode,
		Country: user.Country,
	}, nil
}

func (s *customerService) ResolveGuestInfo(input GuestInfoInput) (*PersonalInfo, error) {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" && last == "" {
		combined := strings.TrimSpace(input.Name)
		if combined != "" {
			parts := strings.SplitN(combined, " ", 2)
			first = parts[0]
			if len(parts) > 1 {
				last = parts[1]
			}
		}
	}

	var violations []string
	if first == "" {
		violations = append(violations, "first_name is required")
	}
	if last == "" {
		violations = append(violations, "last_name is required")
	}
	for _, f := range []struct{ name, value string }{
		{"email", input.Email},
		{"phone", input.Phone},
		{"address", input.Address},
		{"city", input.City},
		{"state", input.State},
		{"zip_code", input.ZipCode},
		{"country", input.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			violations = append(violations, f.name+" is required")
		}
	}
	if input.CreateAccount && input.Password == "" {
		violations = append(violations, "password is required to create an account")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	name := strings.TrimSpace(first + " " + last)
	info := &PersonalInfo{
		IsGuest:    true,
		GuestEmail: input.Email,
		Name:       name,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
		City:       input.City,
		State:      input.State,
		ZipCode:    input.ZipCode,
		Country:    input.Country,
	}

	if !input.CreateAccount {
		return info, nil
	}

	// Guest asked for an account: provision it and hand the order over to
	// the new identity.
	existing, err := s.userRepo.FindByEmail(input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Warn("Guest account provisioning refused: email already registered", map[string]interface{}{
			"email": input.Email,
		})
		return nil, ErrAccountExists
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         name,
		Phone:        input.Phone,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		Country:      input.Country,
		Role:         model.RoleCustomer,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("Provisioned account during guest order intake", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	id := user.ID
	info.UserID = &id
	info.IsGuest = false
	info.GuestEmail = ""
	return info, nil
}
