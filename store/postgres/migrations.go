package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the bazaar store.
var Migrations = migrate.NewGroup("bazaar")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bazaar_merchants",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_merchants (
    id           BIGINT PRIMARY KEY,
    account      TEXT NOT NULL,
    signed_up_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    id                   BIGINT PRIMARY KEY,
    merchant_id          BIGINT NOT NULL,
    price                TEXT NOT NULL,
    asset_ref            TEXT NOT NULL,
    asset_name           TEXT NOT NULL DEFAULT '',
    asset_symbol         TEXT NOT NULL DEFAULT '',
    asset_decimals       SMALLINT NOT NULL DEFAULT 0,
    capped               BOOLEAN NOT NULL DEFAULT FALSE,
    stock                BIGINT NOT NULL DEFAULT 0,
    commission_recipient TEXT NOT NULL DEFAULT '',
    commission_percent   SMALLINT NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    id             BIGINT PRIMARY KEY,
    receipt        TEXT NOT NULL,
    timestamp      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    product_id     BIGINT NOT NULL,
    merchant_id    BIGINT NOT NULL,
    buyer          TEXT NOT NULL,
    asset_ref      TEXT NOT NULL,
    asset_name     TEXT NOT NULL DEFAULT '',
    asset_symbol   TEXT NOT NULL DEFAULT '',
    asset_decimals SMALLINT NOT NULL DEFAULT 0,
    unit_price     TEXT NOT NULL,
    quantity       BIGINT NOT NULL,
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
    weight BIGINT NOT NULL CHECK (weight > 0)
);

CREATE TABLE IF NOT EXISTS bazaar_offers (
    id    BIGINT PRIMARY KEY,
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
    id              SMALLINT PRIMARY KEY,
    merchants_base  BIGINT NOT NULL DEFAULT 0,
    merchants_last  BIGINT NOT NULL DEFAULT 0,
    products_base   BIGINT NOT NULL DEFAULT 0,
    products_last   BIGINT NOT NULL DEFAULT 0,
    payments_base   BIGINT NOT NULL DEFAULT 0,
    payments_last   BIGINT NOT NULL DEFAULT 0,
    offers_base     BIGINT NOT NULL DEFAULT 0,
    offers_last     BIGINT NOT NULL DEFAULT 0,
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
