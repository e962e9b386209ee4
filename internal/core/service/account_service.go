package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

type SignupRequest struct {
	Name        string      `json:"name"`
	Mobile      string      `json:"mobile"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	ShopName    string      `json:"shop_name,omitempty"`
	ShopAddress string      `json:"shop_address,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name        string `json:"name"`
	ShopName    string `json:"shop_name"`
	ShopAddress string `json:"shop_address"`
}

type AccountService struct {
	accounts port.AccountRepository
	logger   *zap.Logger
	hashCost int
	now      func() time.Time
}

func NewAccountService(accounts port.AccountRepository, logger *zap.Logger, hashCost int) *AccountService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &AccountService{
		accounts: accounts,
		logger:   logger,
		hashCost: hashCost,
		now:      time.Now,
	}
}

// Signup registers a new account. A mobile number that is already
// registered yields ErrDuplicateAccount and leaves the registry untouched.
func (s *AccountService) Signup(ctx context.Context, req SignupRequest) (domain.Account, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Mobile = strings.TrimSpace(req.Mobile)
	req.ShopName = strings.TrimSpace(req.ShopName)
	req.ShopAddress = strings.TrimSpace(req.ShopAddress)

	if req.Name == "" || req.Mobile == "" || req.Password == "" {
		return domain.Account{}, ErrMissingField
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}
	if !req.Role.Valid() {
		return domain.Account{}, ErrInvalidRole
	}
	if req.Role == domain.RoleVendor && (req.ShopName == "" || req.ShopAddress == "") {
		return domain.Account{}, ErrShopDetailsRequired
	}
	if req.Role == domain.RoleCustomer {
		req.ShopName, req.ShopAddress = "", ""
	}

	existing, err := s.accounts.FindByMobile(ctx, req.Mobile)
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	if existing != nil {
		return domain.Account{}, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Mobile:      req.Mobile,
		Role:        req.Role,
		ShopName:    req.ShopName,
		ShopAddress: req.ShopAddress,
		CreatedAt:   s.now().UTC(),
	}

	err = s.accounts.CreateAccount(ctx, domain.Credentials{Account: account, PasswordHash: hash})
	if errors.Is(err, port.ErrAlreadyExists) {
		return domain.Account{}, ErrDuplicateAccount
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)))
	return account, nil
}

func (s *AccountService) Login(ctx context.Context, mobile, password string) (domain.Account, error) {
	creds, err := s.accounts.FindByMobile(ctx, strings.TrimSpace(mobile))
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	if creds == nil {
		return domain.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte(password)); err != nil {
		return domain.Account{}, ErrInvalidCredentials
	}
	return creds.Account, nil
}

func (s *AccountService) Account(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return domain.Account{}, ErrAccountNotFound
	}
	return *account, nil
}

// UpdateProfile edits the name and, for vendors, the shop fields. Role and
// mobile number never change.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch ProfileUpdate) (domain.Account, error) {
	account, err := s.Account(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if v := strings.TrimSpace(patch.Name); v != "" {
		account.Name = v
	}
	if account.Role == domain.RoleVendor {
		if v := strings.TrimSpace(patch.ShopName); v != "" {
			account.ShopName = v
		}
		if v := strings.TrimSpace(patch.ShopAddress); v != "" {
			account.ShopAddress = v
		}
	}

	err = s.accounts.UpdateAccount(ctx, account)
	if errors.Is(err, port.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}
