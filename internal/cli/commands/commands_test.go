package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WarehouseApp/internal/bootstrap"
	"WarehouseApp/internal/config"
	"WarehouseApp/internal/model"
	"WarehouseApp/internal/service"
)

// tempConfig: локальное хранилище и каталоги во временной папке, без таблицы и загрузки.
func tempConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		StoreDriver:     config.StoreSQLite,
		StorePath:       filepath.Join(dir, "warehouse.db"),
		ReportsDir:      filepath.Join(dir, "reports"),
		PhotosDir:       filepath.Join(dir, "photos"),
		SheetsSheetName: "Sheet1",
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, int) {
	t.Helper()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return out, code
}

func loadAll(t *testing.T, cfg *config.Config) []model.Container {
	t.Helper()
	var list []model.Container
	require.NoError(t, withApp(context.Background(), cfg, func(app *bootstrap.App) error {
		list = app.Coordinator.Containers()
		return nil
	}))
	return list
}

func TestAddListShow(t *testing.T) {
	cfg := tempConfig(t)

	out, code := run(t, cfg, "add", "MSCU1234567", "export", "3")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "number: MSCU1234567")

	out, code = run(t, cfg, "list")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "MSCU1234567")
	assert.Contains(t, out, "Export")

	out, code = run(t, cfg, "show", "mscu1234567")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "door:      3")
	assert.Contains(t, out, "status:    open")

	out, code = run(t, cfg, "add", "MSCU1234567")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, service.ErrDuplicateNumber.Error())

	out, code = run(t, cfg, "add", "X", "teleport")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "unknown container type")

	_, code = run(t, cfg, "add")
	assert.Equal(t, 2, code)
}

func TestListEmpty(t *testing.T) {
	out, code := run(t, tempConfig(t), "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No containers")
}

func TestEditAndDiscrepancy(t *testing.T) {
	cfg := tempConfig(t)
	_, code := run(t, cfg, "add", "TGHU1")
	require.Equal(t, 0, code)

	out, code := run(t, cfg, "edit", "TGHU1", "door=12", "pieces=10 Pallets, 2 Crates", "materials=Dunnage, Air Bags, Dunnage")
	require.Equal(t, 0, code, out)

	out, code = run(t, cfg, "discrepancy", "TGHU1", "seal", "broken")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "1 total")

	list := loadAll(t, cfg)
	require.Len(t, list, 1)
	c := list[0]
	assert.Equal(t, "12", c.DoorNumber)
	assert.Equal(t, []model.PieceCount{
		{Quantity: 10, PackageType: model.PackagePallets},
		{Quantity: 2, PackageType: model.PackageCrates},
	}, c.PieceCounts)
	assert.Equal(t, []model.MaterialType{model.MaterialDunnage, model.MaterialAirBags}, c.MaterialsSupplied)
	require.Len(t, c.Discrepancies, 1)
	assert.Equal(t, "seal broken", c.Discrepancies[0].Description)

	_, code = run(t, cfg, "edit", "TGHU1", "colour=red")
	assert.Equal(t, 1, code)
	_, code = run(t, cfg, "edit", "TGHU1", "door")
	assert.Equal(t, 2, code, "field without value is a usage error")
	_, code = run(t, cfg, "edit", "NOPE", "door=1")
	assert.Equal(t, 1, code)
}

func TestEditRejectsUnknownPiecesAndMaterials(t *testing.T) {
	cfg := tempConfig(t)
	_, code := run(t, cfg, "add", "TGHU2")
	require.Equal(t, 0, code)
	_, code = run(t, cfg, "edit", "TGHU2", "pieces=4 Reels", "materials=Dunnage")
	require.Equal(t, 0, code)

	for _, arg := range []string{
		"pieces=3 Barrels",
		"pieces=3 Pallets, lots",
		"pieces=0 Crates",
		"materials=Dunnage, Gold",
	} {
		out, code := run(t, cfg, "edit", "TGHU2", arg)
		assert.Equal(t, 1, code, arg)
		assert.Contains(t, out, "edit error", arg)
	}

	c := loadAll(t, cfg)[0]
	assert.Equal(t, []model.PieceCount{{Quantity: 4, PackageType: model.PackageReels}}, c.PieceCounts)
	assert.Equal(t, []model.MaterialType{model.MaterialDunnage}, c.MaterialsSupplied)
}

func TestPhotoCommands(t *testing.T) {
	cfg := tempConfig(t)
	_, code := run(t, cfg, "add", "PH1")
	require.Equal(t, 0, code)

	src := filepath.Join(t.TempDir(), "IMG_0001.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0o600))

	for i := 0; i < 2; i++ {
		out, code := run(t, cfg, "photo", "add", "PH1", src)
		require.Equal(t, 0, code, out)
	}
	list := loadAll(t, cfg)
	require.Len(t, list[0].PhotoPaths, 2)
	first, second := list[0].PhotoPaths[0], list[0].PhotoPaths[1]
	assert.True(t, strings.HasPrefix(first, cfg.PhotosDir))
	_, err := os.Stat(first)
	require.NoError(t, err)

	out, code := run(t, cfg, "photo", "mv", "PH1", "1", "0")
	require.Equal(t, 0, code, out)
	assert.Equal(t, []string{second, first}, loadAll(t, cfg)[0].PhotoPaths)

	out, code = run(t, cfg, "photo", "rm", "PH1", "0")
	require.Equal(t, 0, code, out)
	assert.Equal(t, []string{first}, loadAll(t, cfg)[0].PhotoPaths)
	_, err = os.Stat(second)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, code = run(t, cfg, "photo", "rm", "PH1", "5")
	assert.Equal(t, 1, code)
	_, code = run(t, cfg, "photo", "spin", "PH1", "0")
	assert.Equal(t, 2, code)
}

func TestDeleteCompleteSync(t *testing.T) {
	cfg := tempConfig(t)
	_, code := run(t, cfg, "add", "DL1")
	require.Equal(t, 0, code)

	out, code := run(t, cfg, "complete", "DL1")
	assert.Equal(t, 1, code, "no uploader configured")
	assert.Contains(t, out, service.ErrNoUploader.Error())

	out, code = run(t, cfg, "sync")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, service.ErrNoRemote.Error())

	_, code = run(t, cfg, "refresh")
	assert.Equal(t, 1, code)

	out, code = run(t, cfg, "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Containers: 1 (1 open)")
	assert.Contains(t, out, "not configured")

	out, code = run(t, cfg, "delete", "DL1")
	require.Equal(t, 0, code, out)
	assert.Empty(t, loadAll(t, cfg))
}

func TestHashCode(t *testing.T) {
	out, code := run(t, tempConfig(t), "hash-code", "1234")
	require.Equal(t, 0, code)
	hash := strings.TrimSpace(out)
	_, err := service.NewOperatorService(hash).Login("op", "1234")
	assert.NoError(t, err)
}
