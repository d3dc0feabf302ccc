package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"WarehouseApp/internal/bootstrap"
	"WarehouseApp/internal/config"
	"WarehouseApp/internal/model"
)

var logger = zap.NewNop().Sugar()

// SetLogger задаёт логгер, который получают координатор и его зависимости.
func SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		logger = l
	}
}

// openApp собирает приложение на время одной команды. Close обязателен.
var openApp = func(ctx context.Context, cfg *config.Config) (*bootstrap.App, error) {
	return bootstrap.Build(ctx, cfg, logger)
}

// resolve ищет контейнер по id, затем по номеру.
func resolve(app *bootstrap.App, key string) (model.Container, error) {
	if c, err := app.Coordinator.Get(key); err == nil {
		return c, nil
	}
	for _, c := range app.Coordinator.Containers() {
		if strings.EqualFold(c.ContainerNumber, key) {
			return c, nil
		}
	}
	return model.Container{}, fmt.Errorf("container %q not found", key)
}

// withApp открывает приложение, выполняет fn и закрывает его.
func withApp(ctx context.Context, cfg *config.Config, fn func(app *bootstrap.App) error) error {
	app, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Warnw("close app", "error", cerr)
		}
	}()
	return fn(app)
}

func statusLabel(c model.Container) string {
	if c.IsCompleted {
		return "completed"
	}
	return "open"
}

func printContainer(c model.Container) {
	fmt.Fprintf(Out, "id:        %s\n", c.ID)
	fmt.Fprintf(Out, "number:    %s\n", c.ContainerNumber)
	fmt.Fprintf(Out, "type:      %s\n", c.Type)
	door := c.DoorNumber
	if door == "" {
		door = "N/A"
	}
	fmt.Fprintf(Out, "door:      %s\n", door)
	fmt.Fprintf(Out, "status:    %s\n", statusLabel(c))
	fmt.Fprintf(Out, "created:   %s\n", c.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(Out, "updated:   %s\n", c.UpdatedAt.Format("2006-01-02 15:04"))
	if len(c.PieceCounts) > 0 {
		fmt.Fprintln(Out, "pieces:")
		for _, pc := range c.PieceCounts {
			fmt.Fprintf(Out, "  %d %s\n", pc.Quantity, pc.PackageType)
		}
	}
	if len(c.MaterialsSupplied) > 0 {
		names := make([]string, 0, len(c.MaterialsSupplied))
		for _, m := range c.MaterialsSupplied {
			names = append(names, string(m))
		}
		fmt.Fprintf(Out, "materials: %s\n", strings.Join(names, ", "))
	}
	if len(c.Discrepancies) > 0 {
		fmt.Fprintln(Out, "discrepancies:")
		for _, d := range c.Discrepancies {
			fmt.Fprintf(Out, "  [%s] %s\n", d.Timestamp.Format("2006-01-02 15:04"), d.Description)
		}
	}
	for i, p := range c.PhotoPaths {
		fmt.Fprintf(Out, "photo #%d:  %s\n", i, p)
	}
	if c.CompletedAt != nil {
		fmt.Fprintf(Out, "completed: %s\n", c.CompletedAt.Format("2006-01-02 15:04"))
	}
	if c.ShareableLink != "" {
		fmt.Fprintf(Out, "report:    %s\n", c.ShareableLink)
	}
}
