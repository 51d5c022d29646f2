package domain

// Category группирует орхидеи каталога.
type Category struct {
	ID   string
	Name string
}

// Orchid — товар каталога.
type Orchid struct {
	ID          string
	Name        string
	Description string
	// IsNatural отличает природные орхидеи от гибридов.
	IsNatural bool
	// URL — ссылка на изображение.
	URL string
	// PriceMinor — текущая цена каталога в минимальных денежных единицах.
	PriceMinor int64
	// IsAvailable управляет видимостью товара для покупателей.
	IsAvailable bool
	CategoryID  string
}

// ProductRef — результат разрешения товара каталога для ядра заказов:
// ровно то, что нужно для снимка цены.
type ProductRef struct {
	ID         string
	PriceMinor int64
	Available  bool
}
