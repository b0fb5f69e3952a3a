package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maharish/dinetrack/internal/domain/menu"
)

const (
	listAvailableSQL = `SELECT name, type, description, price, image_path, available
		FROM menu_items WHERE available ORDER BY name`

	listWithStatusSQL = `SELECT m.name, m.type, m.description, m.price, m.image_path, m.available,
			EXISTS (SELECT 1 FROM popular_items p WHERE p.name = m.name) AS is_popular,
			EXISTS (SELECT 1 FROM today_specials s WHERE s.name = m.name) AS is_today_special
		FROM menu_items m ORDER BY m.name`

	insertMenuItemSQL = `INSERT INTO menu_items (name, type, description, price, image_path, available)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertDishSQL = `INSERT INTO dishes (name, type, description, price, image_path)
		VALUES ($1, $2, $3, $4, $5)`

	updateMenuItemSQL = `UPDATE menu_items SET type = $2, description = $3, price = $4, available = $5
		WHERE name = $1`

	deleteMenuItemSQL = `DELETE FROM menu_items WHERE name = $1`
	deleteDishSQL     = `DELETE FROM dishes WHERE name = $1`

	findDishSQL = `SELECT name, type, description, price, image_path FROM dishes WHERE name = $1`

	findMenuItemSQL = `SELECT name, type, description, price, image_path, available
		FROM menu_items WHERE name = $1`

	specialExistsSQL = `SELECT EXISTS (SELECT 1 FROM today_specials WHERE name = $1)`
	deleteSpecialSQL = `DELETE FROM today_specials WHERE name = $1`
	insertSpecialSQL = `INSERT INTO today_specials (name, type, description, price, image_path, available, marked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	popularExistsSQL = `SELECT EXISTS (SELECT 1 FROM popular_items WHERE name = $1)`
	deletePopularSQL = `DELETE FROM popular_items WHERE name = $1`
	insertPopularSQL = `INSERT INTO popular_items (name, type, description, price, image_path)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL. Writes that
// span the menu_items and dishes tables run in a transaction.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// ListAvailable returns all currently available menu items.
func (r *MenuRepository) ListAvailable(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listAvailableSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// ListWithStatus returns every menu item annotated with its popular and
// today's-special flags.
func (r *MenuRepository) ListWithStatus(ctx context.Context) ([]menu.ItemStatus, error) {
	rows, err := r.pool.Query(ctx, listWithStatusSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items with status: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.ItemStatus, error) {
		var s menu.ItemStatus
		err := row.Scan(
			&s.Name, &s.Type, &s.Description, &s.Price, &s.ImagePath, &s.Available,
			&s.IsPopular, &s.IsTodaySpecial,
		)
		return s, err
	})
}

// Add inserts the item into both the menu and the dishes collection.
func (r *MenuRepository) Add(ctx context.Context, item menu.Item) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertMenuItemSQL,
			item.Name, item.Type, item.Description, item.Price, item.ImagePath, item.Available,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertDishSQL,
			item.Name, item.Type, item.Description, item.Price, item.ImagePath,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return menu.ErrDuplicate
		}
		return fmt.Errorf("adding menu item %q: %w", item.Name, err)
	}
	return nil
}

// BulkUpdate applies the given items' mutable fields by name. Names without a
// matching row are skipped.
func (r *MenuRepository) BulkUpdate(ctx context.Context, items []menu.Item) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, item := range items {
			if _, err := tx.Exec(ctx, updateMenuItemSQL,
				item.Name, item.Type, item.Description, item.Price, item.Available,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating menu items: %w", err)
	}
	return nil
}

// Delete removes the item from both the menu and the dishes collection.
// Deleting an unknown name is a no-op.
func (r *MenuRepository) Delete(ctx context.Context, name string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteMenuItemSQL, name); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, deleteDishSQL, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting menu item %q: %w", name, err)
	}
	return nil
}

// FindDish returns a dish by name, or menu.ErrDishNotFound.
func (r *MenuRepository) FindDish(ctx context.Context, name string) (*menu.Dish, error) {
	rows, err := r.pool.Query(ctx, findDishSQL, name)
	if err != nil {
		return nil, fmt.Errorf("getting dish %q: %w", name, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (menu.Dish, error) {
		var d menu.Dish
		err := row.Scan(&d.Name, &d.Type, &d.Description, &d.Price, &d.ImagePath)
		return d, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrDishNotFound
		}
		return nil, fmt.Errorf("getting dish %q: %w", name, err)
	}
	return &d, nil
}

// ToggleSpecial marks the named menu item as today's special, or removes the
// mark if it is already set.
func (r *MenuRepository) ToggleSpecial(ctx context.Context, name string) (marked bool, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, specialExistsSQL, name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			_, err := tx.Exec(ctx, deleteSpecialSQL, name)
			return err
		}

		item, err := findMenuItemTx(ctx, tx, name)
		if err != nil {
			return err
		}
		marked = true
		_, err = tx.Exec(ctx, insertSpecialSQL,
			item.Name, item.Type, item.Description, item.Price, item.ImagePath, item.Available,
			time.Now().UTC(),
		)
		return err
	})
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			return false, menu.ErrNotFound
		}
		return false, fmt.Errorf("toggling special %q: %w", name, err)
	}
	return marked, nil
}

// TogglePopular marks the named menu item as popular, or removes the mark if
// it is already set.
func (r *MenuRepository) TogglePopular(ctx context.Context, name string) (marked bool, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, popularExistsSQL, name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			_, err := tx.Exec(ctx, deletePopularSQL, name)
			return err
		}

		item, err := findMenuItemTx(ctx, tx, name)
		if err != nil {
			return err
		}
		marked = true
		_, err = tx.Exec(ctx, insertPopularSQL,
			item.Name, item.Type, item.Description, item.Price, item.ImagePath,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			return false, menu.ErrNotFound
		}
		return false, fmt.Errorf("toggling popular %q: %w", name, err)
	}
	return marked, nil
}

func findMenuItemTx(ctx context.Context, tx pgx.Tx, name string) (menu.Item, error) {
	var item menu.Item
	err := tx.QueryRow(ctx, findMenuItemSQL, name).Scan(
		&item.Name, &item.Type, &item.Description, &item.Price, &item.ImagePath, &item.Available,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return item, menu.ErrNotFound
	}
	return item, err
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var item menu.Item
	err := row.Scan(&item.Name, &item.Type, &item.Description, &item.Price, &item.ImagePath, &item.Available)
	return item, err
}
