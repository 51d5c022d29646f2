package account

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// RegisterRequest — входные данные регистрации.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// AccountView — учётная запись без секретов.
type AccountView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult — токен и представление аккаунта после успешного входа.
type LoginResult struct {
	Token   string      `json:"token"`
	Account AccountView `json:"account"`
}

// Service управляет учётными записями и выпуском идентичности.
type Service struct {
	accounts domain.AccountRepository
	roles    domain.RoleRepository
	tokens   *TokenIssuer
	logger   *log.Entry
}

// NewService конструирует сервис аккаунтов.
func NewService(accounts domain.AccountRepository, roles domain.RoleRepository, tokens *TokenIssuer, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "account-service")
	}
	return &Service{
		accounts: accounts,
		roles:    roles,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register создаёт аккаунт с ролью USER и bcrypt-хэшем пароля.
func (s *Service) Register(req RegisterRequest) (AccountView, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		return AccountView{}, domain.ErrInvalidCredentials
	}
	if len(req.Password) < 6 {
		return AccountView{}, domain.ErrInvalidCredentials
	}

	role, err := s.ensureRole(domain.RoleUser)
	if err != nil {
		return AccountView{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AccountView{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
	}
	if err := s.accounts.Create(account); err != nil {
		return AccountView{}, err
	}

	s.logger.WithField("account_id", account.ID).Info("account registered")
	return s.toView(account), nil
}

// Login проверяет пару email/пароль и выпускает токен.
// Несуществующий email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	roleName := s.roleName(account.RoleID)
	token, err := s.tokens.Issue(account.ID, roleName)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{Token: token, Account: s.toView(account)}, nil
}

// Identify превращает токен в Identity для операций ядра.
func (s *Service) Identify(token string) (domain.Identity, error) {
	return s.tokens.Identify(token)
}

// Get возвращает аккаунт. Доступен самому аккаунту и администратору.
func (s *Service) Get(identity domain.Identity, id string) (AccountView, error) {
	account, err := s.accounts.Get(id)
	if err != nil {
		return AccountView{}, err
	}
	if identity.ID != account.ID && !identity.HasRole(domain.RoleAdmin) {
		return AccountView{}, domain.ErrForbidden
	}
	return s.toView(account), nil
}

// List возвращает все аккаунты. Только для администратора.
func (s *Service) List(identity domain.Identity) ([]AccountView, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	accounts, err := s.accounts.List()
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, s.toView(account))
	}
	return views, nil
}

// UpdateRequest — частичное обновление аккаунта: пустые поля не меняются.
type UpdateRequest struct {
	Name     string
	Password string
}

// Update изменяет имя и/или пароль аккаунта. Доступно самому аккаунту
// и администратору.
func (s *Service) Update(identity domain.Identity, id string, req UpdateRequest) (AccountView, error) {
	account, err := s.accounts.Get(id)
	if err != nil {
		return AccountView{}, err
	}
	if identity.ID != account.ID && !identity.HasRole(domain.RoleAdmin) {
		return AccountView{}, domain.ErrForbidden
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		account.Name = name
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return AccountView{}, domain.ErrInvalidCredentials
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return AccountView{}, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}

	if err := s.accounts.Update(account); err != nil {
		return AccountView{}, err
	}
	s.logger.WithField("account_id", account.ID).Info("account updated")
	return s.toView(account), nil
}

// Delete удаляет аккаунт. Только для администратора.
func (s *Service) Delete(identity domain.Identity, id string) error {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	return s.accounts.Delete(id)
}

// EnsureAdmin создаёт административный аккаунт, если его ещё нет.
// Используется при старте для bootstrap локального окружения.
func (s *Service) EnsureAdmin(email, password string) error {
	if _, err := s.accounts.GetByEmail(email); err == nil {
		return nil
	}

	role, err := s.ensureRole(domain.RoleAdmin)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.Create(domain.Account{
		ID:           uuid.NewString(),
		Name:         "admin",
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		RoleID:       role.ID,
	})
}

// ListRoles возвращает все роли. Только для администратора.
func (s *Service) ListRoles(identity domain.Identity) ([]domain.Role, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	return s.roles.List()
}

// CreateRole добавляет именованную роль. Только для администратора.
// Повторное создание существующей роли возвращает её же.
func (s *Service) CreateRole(identity domain.Identity, name string) (domain.Role, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.Role{}, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Role{}, domain.ErrRoleNameRequired
	}
	return s.ensureRole(name)
}

// DeleteRole удаляет роль. Только для администратора.
func (s *Service) DeleteRole(identity domain.Identity, id string) error {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	return s.roles.Delete(id)
}

func (s *Service) ensureRole(name string) (domain.Role, error) {
	role, err := s.roles.GetByName(name)
	if err == nil {
		return role, nil
	}

	role = domain.Role{ID: uuid.NewString(), Name: name}
	if err := s.roles.Create(role); err != nil {
		return domain.Role{}, fmt.Errorf("create role %s: %w", name, err)
	}
	return role, nil
}

func (s *Service) roleName(roleID string) string {
	role, err := s.roles.Get(roleID)
	if err != nil {
		s.logger.WithError(err).WithField("role_id", roleID).Warn("role lookup failed, falling back to USER")
		return domain.RoleUser
	}
	return role.Name
}

func (s *Service) toView(account domain.Account) AccountView {
	return AccountView{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
		Role:  s.roleName(account.RoleID),
	}
}
