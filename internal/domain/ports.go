package domain

import "context"

// CatalogGateway разрешает товар каталога для ядра заказов. Ядро каталог
// никогда не мутирует; промах возвращается как ErrOrchidNotFound.
type CatalogGateway interface {
	ResolveProduct(ctx context.Context, orchidID string) (ProductRef, error)
}
