package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"WarehouseApp/internal/bootstrap"
	"WarehouseApp/internal/config"
	"WarehouseApp/internal/model"
)

type listCmd struct{}

func (listCmd) Name() string        { return "list" }
func (listCmd) Group() string       { return GroupContainers }
func (listCmd) Description() string { return "Список контейнеров" }
func (listCmd) Usage() string       { return "list" }

func (listCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		list := app.Coordinator.Containers()
		if len(list) == 0 {
			fmt.Fprintln(Out, "No containers")
			return nil
		}
		tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNUMBER\tTYPE\tDOOR\tSTATUS\tISSUES")
		for _, c := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", c.ID, c.ContainerNumber, c.Type, c.DoorNumber, statusLabel(c), len(c.Discrepancies))
		}
		return tw.Flush()
	})
}

type showCmd struct{}

func (showCmd) Name() string        { return "show" }
func (showCmd) Group() string       { return GroupContainers }
func (showCmd) Description() string { return "Показать контейнер целиком" }
func (showCmd) Usage() string       { return "show <id|number>" }

func (showCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := resolve(app, args[0])
		if err != nil {
			return err
		}
		printContainer(c)
		return nil
	})
}

type addCmd struct{}

func (addCmd) Name() string        { return "add" }
func (addCmd) Group() string       { return GroupContainers }
func (addCmd) Description() string { return "Создать контейнер (тип Import|Export|Delivery)" }
func (addCmd) Usage() string       { return "add <number> [type] [door]" }

func (addCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 3 || strings.TrimSpace(args[0]) == "" {
		return ErrUsage
	}
	typ := model.ContainerImport
	if len(args) >= 2 {
		t, ok := model.LookupContainerType(args[1])
		if !ok {
			return fmt.Errorf("unknown container type %q", args[1])
		}
		typ = t
	}
	door := ""
	if len(args) == 3 {
		door = args[2]
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := app.Coordinator.Add(ctx, model.New("", args[0], typ, door, app.Coordinator.Now()))
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Created:")
		fmt.Fprintf(Out, "  id:     %s\n", c.ID)
		fmt.Fprintf(Out, "  number: %s\n", c.ContainerNumber)
		reportOffline(app)
		return nil
	})
}

type editCmd struct{}

func (editCmd) Name() string  { return "edit" }
func (editCmd) Group() string { return GroupContainers }
func (editCmd) Description() string {
	return "Изменить поля: number=, type=, door=, pieces=\"10 Pallets, 2 Crates\", materials=\"Pallets, Dunnage\""
}
func (editCmd) Usage() string { return "edit <id|number> <field>=<value>..." }

func (editCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := resolve(app, args[0])
		if err != nil {
			return err
		}
		for _, kv := range args[1:] {
			if err := applyField(&c, kv); err != nil {
				return err
			}
		}
		updated, err := app.Coordinator.Update(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Updated %s\n", updated.ContainerNumber)
		reportOffline(app)
		return nil
	})
}

// applyField разбирает одно присваивание field=value.
func applyField(c *model.Container, kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("%w: expected field=value, got %q", ErrUsage, kv)
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "number":
		c.ContainerNumber = strings.TrimSpace(value)
	case "type":
		t, ok := model.LookupContainerType(value)
		if !ok {
			return fmt.Errorf("unknown container type %q", value)
		}
		c.Type = t
	case "door":
		c.DoorNumber = strings.TrimSpace(value)
	case "pieces":
		pcs, err := parsePieces(value)
		if err != nil {
			return err
		}
		c.PieceCounts = pcs
	case "materials":
		ms, err := parseMaterials(value)
		if err != nil {
			return err
		}
		c.SetMaterials(ms)
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}

// parsePieces разбирает "10 Pallets, 2 Crates". Пустое значение очищает список.
func parsePieces(value string) ([]model.PieceCount, error) {
	out := []model.PieceCount{}
	for _, part := range splitList(value) {
		qty, pkg, ok := strings.Cut(part, " ")
		if !ok {
			return nil, fmt.Errorf("piece count %q: expected \"<quantity> <package>\"", part)
		}
		n, err := strconv.Atoi(qty)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("piece count %q: quantity must be a positive number", part)
		}
		p, ok := model.LookupPackageType(pkg)
		if !ok {
			return nil, fmt.Errorf("piece count %q: unknown package type %q", part, strings.TrimSpace(pkg))
		}
		out = append(out, model.PieceCount{Quantity: n, PackageType: p})
	}
	return out, nil
}

func parseMaterials(value string) ([]model.MaterialType, error) {
	var out []model.MaterialType
	for _, part := range splitList(value) {
		m, ok := model.LookupMaterialType(part)
		if !ok {
			return nil, fmt.Errorf("unknown material %q", part)
		}
		out = append(out, m)
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type discrepancyCmd struct{}

func (discrepancyCmd) Name() string        { return "discrepancy" }
func (discrepancyCmd) Group() string       { return GroupContainers }
func (discrepancyCmd) Description() string { return "Зафиксировать расхождение" }
func (discrepancyCmd) Usage() string       { return "discrepancy <id|number> <description...>" }

func (discrepancyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	desc := strings.TrimSpace(strings.Join(args[1:], " "))
	if desc == "" {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := resolve(app, args[0])
		if err != nil {
			return err
		}
		c.Discrepancies = append(c.Discrepancies, model.Discrepancy{
			Description: desc,
			Timestamp:   app.Coordinator.Now(),
		})
		if _, err := app.Coordinator.Update(ctx, c); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Discrepancy recorded for %s (%d total)\n", c.ContainerNumber, len(c.Discrepancies))
		reportOffline(app)
		return nil
	})
}

type deleteCmd struct{}

func (deleteCmd) Name() string        { return "delete" }
func (deleteCmd) Group() string       { return GroupContainers }
func (deleteCmd) Description() string { return "Удалить контейнер локально (строка в таблице остаётся)" }
func (deleteCmd) Usage() string       { return "delete <id|number>" }

func (deleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := resolve(app, args[0])
		if err != nil {
			return err
		}
		if err := app.Coordinator.Delete(ctx, c.ID); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Deleted %s\n", c.ContainerNumber)
		return nil
	})
}

type completeCmd struct{}

func (completeCmd) Name() string        { return "complete" }
func (completeCmd) Group() string       { return GroupContainers }
func (completeCmd) Description() string { return "Сформировать отчёт, загрузить его и завершить контейнер" }
func (completeCmd) Usage() string       { return "complete <id|number>" }

func (completeCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := resolve(app, args[0])
		if err != nil {
			return err
		}
		done, err := app.Coordinator.Complete(ctx, c.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Completed %s\n", done.ContainerNumber)
		fmt.Fprintf(Out, "  report: %s\n", done.ShareableLink)
		reportOffline(app)
		return nil
	})
}

func reportOffline(app *bootstrap.App) {
	if app.Coordinator.IsOffline() {
		fmt.Fprintln(Out, "! Remote sheet unavailable, changes are saved locally")
	}
}

func init() {
	RegisterCmd(listCmd{})
	RegisterCmd(showCmd{})
	RegisterCmd(addCmd{})
	RegisterCmd(editCmd{})
	RegisterCmd(discrepancyCmd{})
	RegisterCmd(deleteCmd{})
	RegisterCmd(completeCmd{})
}
