package commands

import (
	"context"
	"fmt"
	"strings"

	"WarehouseApp/internal/bootstrap"
	"WarehouseApp/internal/config"
	"WarehouseApp/internal/service"
)

type syncCmd struct{}

func (syncCmd) Name() string        { return "sync" }
func (syncCmd) Group() string       { return GroupSheet }
func (syncCmd) Description() string { return "Отправить все контейнеры в удалённую таблицу" }
func (syncCmd) Usage() string       { return "sync" }

func (syncCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		fmt.Fprintln(Out, "→ Синхронизация с таблицей...")
		res, err := app.Coordinator.SyncAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Отправлено %d из %d\n", res.Synced, res.Total)
		if len(res.Failed) > 0 {
			fmt.Fprintf(Out, "× Не отправлены: %s\n", strings.Join(res.Failed, ", "))
		}
		return nil
	})
}

type refreshCmd struct{}

func (refreshCmd) Name() string        { return "refresh" }
func (refreshCmd) Group() string       { return GroupSheet }
func (refreshCmd) Description() string { return "Забрать из таблицы контейнеры, которых нет локально" }
func (refreshCmd) Usage() string       { return "refresh" }

func (refreshCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		added, err := app.Coordinator.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Добавлено из таблицы: %d\n", added)
		return nil
	})
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Group() string       { return GroupSheet }
func (statusCmd) Description() string { return "Состояние локального хранилища и связи с таблицей" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		list := app.Coordinator.Containers()
		open := 0
		for _, c := range list {
			if !c.IsCompleted {
				open++
			}
		}
		fmt.Fprintf(Out, "Store:      %s (%s)\n", cfg.StoreDriver, cfg.StorePath)
		fmt.Fprintf(Out, "Containers: %d (%d open)\n", len(list), open)
		remote := "not configured"
		if cfg.RemoteEnabled() {
			remote = cfg.SheetsSpreadsheetID + "/" + cfg.SheetsSheetName
		}
		fmt.Fprintf(Out, "Remote:     %s\n", remote)
		return nil
	})
}

type hashCodeCmd struct{}

func (hashCodeCmd) Name() string        { return "hash-code" }
func (hashCodeCmd) Group() string       { return GroupOperator }
func (hashCodeCmd) Description() string { return "Напечатать bcrypt-хэш кода доступа для ACCESS_CODE_HASH" }
func (hashCodeCmd) Usage() string       { return "hash-code <code>" }

func (hashCodeCmd) Run(_ context.Context, _ *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	h, err := service.HashAccessCode(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, h)
	return nil
}

func init() {
	RegisterCmd(syncCmd{})
	RegisterCmd(refreshCmd{})
	RegisterCmd(statusCmd{})
	RegisterCmd(hashCodeCmd{})
}
