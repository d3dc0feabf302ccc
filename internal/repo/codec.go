package repo

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"WarehouseApp/internal/model"
)

// EncodeContainers serializes the collection into the persisted JSON blob.
func EncodeContainers(containers []model.Container) ([]byte, error) {
	if containers == nil {
		containers = []model.Container{}
	}
	b, err := json.Marshal(containers)
	if err != nil {
		return nil, fmt.Errorf("encode containers: %w", err)
	}
	return b, nil
}

// DecodeContainers parses the persisted blob. An empty blob is an empty collection.
// A corrupt blob is logged and also yields an empty collection.
func DecodeContainers(data []byte, logger *zap.SugaredLogger) []model.Container {
	if len(data) == 0 {
		return []model.Container{}
	}
	var out []model.Container
	if err := json.Unmarshal(data, &out); err != nil {
		if logger != nil {
			logger.Warnw("local store: corrupt containers blob, starting empty", "key", StorageKey, "error", err)
		}
		return []model.Container{}
	}
	for i := range out {
		normalize(&out[i])
	}
	return out
}

// normalize заменяет nil-слайсы пустыми, чтобы JSON и сравнения были стабильными.
func normalize(c *model.Container) {
	if c.PieceCounts == nil {
		c.PieceCounts = []model.PieceCount{}
	}
	if c.MaterialsSupplied == nil {
		c.MaterialsSupplied = []model.MaterialType{}
	}
	if c.Discrepancies == nil {
		c.Discrepancies = []model.Discrepancy{}
	}
	if c.PhotoPaths == nil {
		c.PhotoPaths = []string{}
	}
}
