package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// OrchidInput — входные данные создания/обновления товара каталога.
type OrchidInput struct {
	Name        string
	Description string
	IsNatural   bool
	URL         string
	PriceMinor  int64
	IsAvailable bool
	CategoryID  string
}

// Service обслуживает каталог орхидей и категорий. Он же выступает
// Catalog Gateway для ядра заказов: ResolveProduct отдаёт текущую цену.
type Service struct {
	orchids    domain.OrchidRepository
	categories domain.CategoryRepository
	logger     *log.Entry
}

// NewService конструирует сервис каталога.
func NewService(orchids domain.OrchidRepository, categories domain.CategoryRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	return &Service{
		orchids:    orchids,
		categories: categories,
		logger:     logger,
	}
}

// ResolveProduct разрешает товар для ядра заказов.
func (s *Service) ResolveProduct(_ context.Context, orchidID string) (domain.ProductRef, error) {
	orchid, err := s.orchids.Get(orchidID)
	if err != nil {
		return domain.ProductRef{}, err
	}
	return domain.ProductRef{
		ID:         orchid.ID,
		PriceMinor: orchid.PriceMinor,
		Available:  orchid.IsAvailable,
	}, nil
}

// CreateOrchid добавляет товар. Только для администратора.
func (s *Service) CreateOrchid(identity domain.Identity, input OrchidInput) (domain.Orchid, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.Orchid{}, domain.ErrForbidden
	}
	if err := s.validateOrchidInput(input); err != nil {
		return domain.Orchid{}, err
	}

	orchid := domain.Orchid{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		IsNatural:   input.IsNatural,
		URL:         input.URL,
		PriceMinor:  input.PriceMinor,
		IsAvailable: input.IsAvailable,
		CategoryID:  input.CategoryID,
	}
	if err := s.orchids.Create(orchid); err != nil {
		return domain.Orchid{}, err
	}
	s.logger.WithField("orchid_id", orchid.ID).Info("orchid created")
	return orchid, nil
}

// GetOrchid возвращает товар по идентификатору.
func (s *Service) GetOrchid(id string) (domain.Orchid, error) {
	return s.orchids.Get(id)
}

// ListOrchids возвращает каталог. Не-администратор видит только доступные товары.
func (s *Service) ListOrchids(identity domain.Identity) ([]domain.Orchid, error) {
	orchids, err := s.orchids.List()
	if err != nil {
		return nil, err
	}
	return visibleTo(identity, orchids), nil
}

// ListOrchidsByCategory возвращает товары категории с тем же фильтром
// доступности, что и ListOrchids.
func (s *Service) ListOrchidsByCategory(identity domain.Identity, categoryID string) ([]domain.Orchid, error) {
	if _, err := s.categories.Get(categoryID); err != nil {
		return nil, err
	}
	orchids, err := s.orchids.ListByCategory(categoryID)
	if err != nil {
		return nil, err
	}
	return visibleTo(identity, orchids), nil
}

func visibleTo(identity domain.Identity, orchids []domain.Orchid) []domain.Orchid {
	if identity.HasRole(domain.RoleAdmin) {
		return orchids
	}
	visible := make([]domain.Orchid, 0, len(orchids))
	for _, orchid := range orchids {
		if orchid.IsAvailable {
			visible = append(visible, orchid)
		}
	}
	return visible
}

// UpdateOrchid обновляет товар. Только для администратора.
func (s *Service) UpdateOrchid(identity domain.Identity, id string, input OrchidInput) (domain.Orchid, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.Orchid{}, domain.ErrForbidden
	}
	if err := s.validateOrchidInput(input); err != nil {
		return domain.Orchid{}, err
	}

	orchid, err := s.orchids.Get(id)
	if err != nil {
		return domain.Orchid{}, err
	}

	orchid.Name = strings.TrimSpace(input.Name)
	orchid.Description = input.Description
	orchid.IsNatural = input.IsNatural
	orchid.URL = input.URL
	orchid.PriceMinor = input.PriceMinor
	orchid.IsAvailable = input.IsAvailable
	orchid.CategoryID = input.CategoryID

	if err := s.orchids.Update(orchid); err != nil {
		return domain.Orchid{}, err
	}
	return orchid, nil
}

// DeleteOrchid удаляет товар. Только для администратора.
func (s *Service) DeleteOrchid(identity domain.Identity, id string) error {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	return s.orchids.Delete(id)
}

// CreateCategory добавляет категорию. Только для администратора.
func (s *Service) CreateCategory(identity domain.Identity, name string) (domain.Category, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.Category{}, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.ErrCategoryNameRequired
	}

	category := domain.Category{ID: uuid.NewString(), Name: name}
	if err := s.categories.Create(category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// GetCategory возвращает категорию.
func (s *Service) GetCategory(id string) (domain.Category, error) {
	return s.categories.Get(id)
}

// ListCategories возвращает все категории.
func (s *Service) ListCategories() ([]domain.Category, error) {
	return s.categories.List()
}

// UpdateCategory переименовывает категорию. Только для администратора.
func (s *Service) UpdateCategory(identity domain.Identity, id, name string) (domain.Category, error) {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.Category{}, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.ErrCategoryNameRequired
	}

	category, err := s.categories.Get(id)
	if err != nil {
		return domain.Category{}, err
	}
	category.Name = name
	if err := s.categories.Update(category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// DeleteCategory удаляет категорию. Только для администратора.
func (s *Service) DeleteCategory(identity domain.Identity, id string) error {
	if !identity.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	return s.categories.Delete(id)
}

func (s *Service) validateOrchidInput(input OrchidInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domain.ErrOrchidNameRequired
	}
	if input.PriceMinor < 0 {
		return domain.ErrOrchidPriceInvalid
	}
	// Категория обязательна: схема хранилища требует ссылку на categories.
	if input.CategoryID == "" {
		return domain.ErrOrchidCategoryRequired
	}
	if _, err := s.categories.Get(input.CategoryID); err != nil {
		return err
	}
	return nil
}

var _ domain.CatalogGateway = (*Service)(nil)
