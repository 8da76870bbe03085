package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the bazaar store (SQLite).
var Migrations = migrate.NewGroup("bazaar")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bazaar_merchants",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_merchants (
    id           INTEGER PRIMARY KEY,
    account      TEXT NOT NULL,
    signed_up_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bazaar_merchants_account ON bazaar_merchants (account);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_merchants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_products",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_products (
    id                   INTEGER PRIMARY KEY,
    merchant_id          INTEGER NOT NULL,
    price                TEXT NOT NULL,
    asset_ref            TEXT NOT NULL,
    asset_name           TEXT NOT NULL DEFAULT '',
    asset_symbol         TEXT NOT NULL DEFAULT '',
    asset_decimals       INTEGER NOT NULL DEFAULT 0,
    capped               INTEGER NOT NULL DEFAULT 0,
    stock                INTEGER NOT NULL DEFAULT 0,
    commission_recipient TEXT NOT NULL DEFAULT '',
    commission_percent   INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bazaar_products_merchant ON bazaar_products (merchant_id, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_products`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_payments",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_payments (
    id             INTEGER PRIMARY KEY,
    receipt        TEXT NOT NULL,
    timestamp      TEXT NOT NULL DEFAULT (datetime('now')),
    product_id     INTEGER NOT NULL,
    merchant_id    INTEGER NOT NULL,
    buyer          TEXT NOT NULL,
    asset_ref      TEXT NOT NULL,
    asset_name     TEXT NOT NULL DEFAULT '',
    asset_symbol   TEXT NOT NULL DEFAULT '',
    asset_decimals INTEGER NOT NULL DEFAULT 0,
    unit_price     TEXT NOT NULL,
    quantity       INTEGER NOT NULL,
    merchant_net   TEXT NOT NULL,
    commission     TEXT NOT NULL,
    fee            TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bazaar_payments_receipt ON bazaar_payments (receipt);
CREATE INDEX IF NOT EXISTS idx_bazaar_payments_merchant ON bazaar_payments (merchant_id, id);
CREATE INDEX IF NOT EXISTS idx_bazaar_payments_buyer ON bazaar_payments (buyer, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_stake",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_holdings (
    holder TEXT PRIMARY KEY,
    weight INTEGER NOT NULL CHECK (weight > 0)
);

CREATE TABLE IF NOT EXISTS bazaar_offers (
    id    INTEGER PRIMARY KEY,
    owner TEXT NOT NULL,
    price TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bazaar_offers_owner ON bazaar_offers (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_offers; DROP TABLE IF EXISTS bazaar_holdings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_counters",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_counters (
    id              INTEGER PRIMARY KEY,
    merchants_base  INTEGER NOT NULL DEFAULT 0,
    merchants_last  INTEGER NOT NULL DEFAULT 0,
    products_base   INTEGER NOT NULL DEFAULT 0,
    products_last   INTEGER NOT NULL DEFAULT 0,
    payments_base   INTEGER NOT NULL DEFAULT 0,
    payments_last   INTEGER NOT NULL DEFAULT 0,
    offers_base     INTEGER NOT NULL DEFAULT 0,
    offers_last     INTEGER NOT NULL DEFAULT 0,
    total_fees_paid TEXT NOT NULL DEFAULT '0'
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_counters`)
				return err
			},
		},
	)
}
