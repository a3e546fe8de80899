package testutil

// Schema is the inventory service DDL applied to test databases.
// Keep in sync with migrations/schema.sql.
const Schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
    id              UUID PRIMARY KEY,
    farm_id         UUID NOT NULL,
    internal_code   VARCHAR(20) NOT NULL,
    name            VARCHAR(120) NOT NULL,
    description     TEXT,
    category        VARCHAR(20) NOT NULL,
    unit            VARCHAR(20) NOT NULL,
    current_balance NUMERIC(14, 4) NOT NULL DEFAULT 0,
    minimum_balance NUMERIC(14, 4) NOT NULL DEFAULT 0,
    expiry_date     DATE,
    storage_notes   TEXT,
    is_active       BOOLEAN NOT NULL DEFAULT true,
    created_by      UUID,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT items_balance_non_negative CHECK (current_balance >= 0),
    CONSTRAINT items_minimum_non_negative CHECK (minimum_balance >= 0),
    CONSTRAINT items_category_valid CHECK (
        category IN ('feed', 'vaccine', 'medicine', 'disinfectant', 'other')
    ),
    CONSTRAINT items_internal_code_unique UNIQUE (farm_id, internal_code)
);

CREATE INDEX IF NOT EXISTS idx_items_farm ON inventory_items (farm_id);
CREATE INDEX IF NOT EXISTS idx_items_farm_category ON inventory_items (farm_id, category);
CREATE INDEX IF NOT EXISTS idx_items_expiry ON inventory_items (farm_id, expiry_date)
    WHERE expiry_date IS NOT NULL;

CREATE TABLE IF NOT EXISTS inventory_movements (
    id             UUID PRIMARY KEY,
    farm_id        UUID NOT NULL,
    item_id        UUID NOT NULL REFERENCES inventory_items (id),
    kind           VARCHAR(20) NOT NULL,
    quantity       NUMERIC(14, 4) NOT NULL,
    balance_before NUMERIC(14, 4) NOT NULL,
    balance_after  NUMERIC(14, 4) NOT NULL,
    unit_cost      NUMERIC(14, 4),
    reason         TEXT,
    batch_number   VARCHAR(60),
    supplier       VARCHAR(120),
    invoice_number VARCHAR(60),
    performed_by   UUID,
    occurred_at    TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT movements_kind_valid CHECK (
        kind IN ('entry_purchase', 'entry_donation', 'usage_consumption', 'usage_loss', 'adjustment')
    ),
    CONSTRAINT movements_quantity_positive CHECK (
        quantity > 0 OR (kind = 'adjustment' AND quantity >= 0)
    ),
    CONSTRAINT movements_balance_non_negative CHECK (balance_after >= 0)
);

CREATE INDEX IF NOT EXISTS idx_movements_item_occurred
    ON inventory_movements (farm_id, item_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_movements_farm_kind
    ON inventory_movements (farm_id, kind, occurred_at DESC);

CREATE TABLE IF NOT EXISTS inventory_alerts (
    id          UUID PRIMARY KEY,
    farm_id     UUID NOT NULL,
    item_id     UUID NOT NULL REFERENCES inventory_items (id),
    kind        VARCHAR(20) NOT NULL,
    severity    VARCHAR(10) NOT NULL,
    message     TEXT NOT NULL,
    is_active   BOOLEAN NOT NULL DEFAULT true,
    resolved_by UUID,
    resolved_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT alerts_kind_valid CHECK (
        kind IN ('low_stock', 'stock_out', 'expiring_soon')
    ),
    CONSTRAINT alerts_severity_valid CHECK (severity IN ('warning', 'critical'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_one_active_alert
    ON inventory_alerts (item_id, kind)
    WHERE is_active;

CREATE INDEX IF NOT EXISTS idx_alerts_farm_active
    ON inventory_alerts (farm_id, is_active, created_at DESC);

CREATE TABLE IF NOT EXISTS consumption_reports (
    id             UUID PRIMARY KEY,
    farm_id        UUID NOT NULL,
    item_id        UUID REFERENCES inventory_items (id),
    category_filter VARCHAR(20),
    period_start   TIMESTAMPTZ NOT NULL,
    period_end     TIMESTAMPTZ NOT NULL,
    total_consumed NUMERIC(14, 4) NOT NULL,
    avg_daily      NUMERIC(14, 4) NOT NULL,
    trend          VARCHAR(10) NOT NULL,
    generated_by   UUID,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT reports_trend_valid CHECK (trend IN ('growing', 'falling', 'stable')),
    CONSTRAINT reports_period_valid CHECK (period_end >= period_start)
);

CREATE INDEX IF NOT EXISTS idx_reports_farm_item
    ON consumption_reports (farm_id, item_id, created_at DESC);
`
