package commands

import (
	"context"
	"fmt"
	"strconv"

	"WarehouseApp/internal/bootstrap"
	"WarehouseApp/internal/config"
)

type photoCmd struct{}

func (photoCmd) Name() string        { return "photo" }
func (photoCmd) Group() string       { return GroupPhotos }
func (photoCmd) Description() string { return "Фото контейнера: добавить, удалить, переставить" }
func (photoCmd) Usage() string {
	return "photo add <id|number> <file> | rm <id|number> <index> | mv <id|number> <from> <to>"
}

func (photoCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return ErrUsage
	}
	sub, key := args[0], args[1]
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		c, err := resolve(app, key)
		if err != nil {
			return err
		}
		switch sub {
		case "add":
			if len(args) != 3 {
				return ErrUsage
			}
			p, err := app.Photos.Import(args[2])
			if err != nil {
				return err
			}
			c.PhotoPaths = append(c.PhotoPaths, p)
			if _, err := app.Coordinator.Update(ctx, c); err != nil {
				_ = app.Photos.Remove(p)
				return err
			}
			fmt.Fprintf(Out, "Photo #%d added: %s\n", len(c.PhotoPaths)-1, p)
		case "rm":
			if len(args) != 3 {
				return ErrUsage
			}
			i, err := strconv.Atoi(args[2])
			if err != nil {
				return ErrUsage
			}
			p, err := c.RemovePhoto(i)
			if err != nil {
				return err
			}
			if _, err := app.Coordinator.Update(ctx, c); err != nil {
				return err
			}
			if err := app.Photos.Remove(p); err != nil {
				logger.Warnw("remove photo file", "path", p, "error", err)
			}
			fmt.Fprintf(Out, "Photo #%d removed\n", i)
		case "mv":
			if len(args) != 4 {
				return ErrUsage
			}
			from, err1 := strconv.Atoi(args[2])
			to, err2 := strconv.Atoi(args[3])
			if err1 != nil || err2 != nil {
				return ErrUsage
			}
			if err := c.MovePhoto(from, to); err != nil {
				return err
			}
			if _, err := app.Coordinator.Update(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(Out, "Photo #%d moved to #%d\n", from, to)
		default:
			return ErrUsage
		}
		reportOffline(app)
		return nil
	})
}

func init() { RegisterCmd(photoCmd{}) }
