// Command seed-db loads the menu fixture into PostgreSQL: menu items with
// their dish records, the initial GST rates, and the member list. Existing
// rows are left untouched, so re-running is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/maharish/dinetrack/internal/repository"
)

type menuItemJSON struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImagePath   string          `json:"image_path"`
	Available   bool            `json:"available"`
}

type seedJSON struct {
	MenuItems []menuItemJSON `json:"menu_items"`
	GST       struct {
		CGST decimal.Decimal `json:"cgst"`
		SGST decimal.Decimal `json:"sgst"`
	} `json:"gst"`
	Members []struct {
		Phone  string `json:"phone"`
		Screen int    `json:"screen"`
	} `json:"members"`
}

func main() {
	var (
		databaseURL string
		seedFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedFile, "seed-file", "db/seed/menu.json", "path to menu seed JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedJSON
	if err := json.Unmarshal(raw, &seed); err != nil {
		return errors.Wrap(err, "parse seed file")
	}

	for _, item := range seed.MenuItems {
		_, err := pool.Exec(ctx,
			`INSERT INTO menu_items (name, type, description, price, image_path, available)
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (name) DO NOTHING`,
			item.Name, item.Type, item.Description, item.Price, item.ImagePath, item.Available,
		)
		if err != nil {
			return errors.Wrapf(err, "insert menu item %s", item.Name)
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO dishes (name, type, description, price, image_path)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`,
			item.Name, item.Type, item.Description, item.Price, item.ImagePath,
		)
		if err != nil {
			return errors.Wrapf(err, "insert dish %s", item.Name)
		}
	}
	slog.Info("menu items seeded", slog.Int("count", len(seed.MenuItems)))

	// The rate history is append-only, so the initial rates go in only when
	// the table is empty. Reruns must not pile on duplicate rows.
	tag, err := pool.Exec(ctx,
		`INSERT INTO gst_rates (cgst, sgst, recorded_at)
		 SELECT $1, $2, now() WHERE NOT EXISTS (SELECT 1 FROM gst_rates)`,
		seed.GST.CGST, seed.GST.SGST,
	)
	if err != nil {
		return errors.Wrap(err, "insert gst rates")
	}
	if tag.RowsAffected() > 0 {
		slog.Info("gst rates seeded",
			slog.String("cgst", seed.GST.CGST.String()),
			slog.String("sgst", seed.GST.SGST.String()),
		)
	}

	for _, m := range seed.Members {
		_, err := pool.Exec(ctx,
			`INSERT INTO members (phone, screen) VALUES ($1, $2) ON CONFLICT (phone) DO NOTHING`,
			m.Phone, m.Screen,
		)
		if err != nil {
			return errors.Wrapf(err, "insert member %s", m.Phone)
		}
	}
	slog.Info("members seeded", slog.Int("count", len(seed.Members)))

	return nil
}
