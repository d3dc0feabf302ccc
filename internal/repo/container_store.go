package repo

import (
	"context"

	"WarehouseApp/internal/model"
)

// StorageKey: фиксированный ключ, под которым хранится вся коллекция контейнеров.
const StorageKey = "@warehouse_containers"

// ContainerStore определяет порт локального хранилища контейнеров.
// Коллекция хранится и перезаписывается целиком, частичных обновлений нет.
type ContainerStore interface {
	// Load читает всю коллекцию. Повреждённые данные не считаются ошибкой:
	// возвращается пустая коллекция, ошибка только при сбое самого хранилища.
	Load(ctx context.Context) ([]model.Container, error)

	// SaveAll перезаписывает коллекцию одной операцией записи.
	SaveAll(ctx context.Context, containers []model.Container) error
}
