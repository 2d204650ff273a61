package models

const (
	// DefaultCartKey ключ, под которым корзина хранится в key-value хранилище
	DefaultCartKey = "homestay_cart"

	// DefaultProcessingDelayMS длительность имитации обработки платежа
	DefaultProcessingDelayMS = 1500

	// DefaultMaxBookingDays насколько далеко вперед можно бронировать
	DefaultMaxBookingDays = 365

	// DefaultCurrency валюта, в которой указаны цены каталога
	DefaultCurrency = "USD"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)
