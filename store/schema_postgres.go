package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS product_templates (
    id                      BIGSERIAL PRIMARY KEY,
    name                    TEXT NOT NULL,
    description             TEXT NOT NULL DEFAULT '',
    model_type              TEXT NOT NULL DEFAULT '',
    is_active               BOOLEAN NOT NULL DEFAULT TRUE,
    total_material_cost     NUMERIC(14,4) NOT NULL DEFAULT 0,
    total_labor_cost        NUMERIC(14,4) NOT NULL DEFAULT 0,
    total_estimated_minutes INTEGER NOT NULL DEFAULT 0,
    created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS raw_materials (
    id            BIGSERIAL PRIMARY KEY,
    code          TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    unit          TEXT NOT NULL DEFAULT 'kg',
    category      TEXT NOT NULL DEFAULT '',
    current_stock NUMERIC(14,4) NOT NULL DEFAULT 0,
    minimum_stock NUMERIC(14,4) NOT NULL DEFAULT 0,
    unit_cost     NUMERIC(14,4) NOT NULL DEFAULT 0,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS template_parts (
    id                BIGSERIAL PRIMARY KEY,
    template_id       BIGINT NOT NULL REFERENCES product_templates(id) ON DELETE CASCADE,
    parent_part_id    BIGINT REFERENCES template_parts(id) ON DELETE CASCADE,
    name              TEXT NOT NULL,
    part_type         TEXT NOT NULL DEFAULT 'Component',
    quantity          NUMERIC(14,4) NOT NULL DEFAULT 1,
    unit              TEXT NOT NULL DEFAULT 'unit',
    unit_cost         NUMERIC(14,4) NOT NULL DEFAULT 0,
    labor_cost        NUMERIC(14,4) NOT NULL DEFAULT 0,
    estimated_minutes INTEGER NOT NULL DEFAULT 0,
    position          INTEGER NOT NULL DEFAULT 0,
    raw_material_id   BIGINT REFERENCES raw_materials(id),
    notes             TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_parts_template ON template_parts(template_id);
CREATE INDEX IF NOT EXISTS idx_parts_parent ON template_parts(parent_part_id);

CREATE TABLE IF NOT EXISTS products (
    id            BIGSERIAL PRIMARY KEY,
    name          TEXT NOT NULL,
    model         TEXT NOT NULL DEFAULT '',
    size          TEXT NOT NULL DEFAULT '',
    capacity      INTEGER NOT NULL DEFAULT 0,
    color         TEXT NOT NULL DEFAULT '',
    layers        INTEGER NOT NULL DEFAULT 1,
    weight        NUMERIC(14,4) NOT NULL DEFAULT 0,
    description   TEXT NOT NULL DEFAULT '',
    template_id   BIGINT REFERENCES product_templates(id) ON DELETE SET NULL,
    material_cost NUMERIC(14,4) NOT NULL DEFAULT 0,
    labor_cost    NUMERIC(14,4) NOT NULL DEFAULT 0,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_materials (
    id                BIGSERIAL PRIMARY KEY,
    product_id        BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    raw_material_id   BIGINT NOT NULL REFERENCES raw_materials(id),
    quantity_required NUMERIC(14,4) NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_product_materials_product ON product_materials(product_id);

CREATE TABLE IF NOT EXISTS production_orders (
    id             BIGSERIAL PRIMARY KEY,
    order_number   TEXT NOT NULL UNIQUE,
    product_id     BIGINT NOT NULL REFERENCES products(id),
    quantity       INTEGER NOT NULL DEFAULT 1,
    status         TEXT NOT NULL DEFAULT 'Pending',
    shift          TEXT NOT NULL DEFAULT '',
    order_date     TIMESTAMPTZ NOT NULL,
    completed_date TIMESTAMPTZ,
    notes          TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_production_orders_product ON production_orders(product_id);
CREATE INDEX IF NOT EXISTS idx_production_orders_status ON production_orders(status);

CREATE TABLE IF NOT EXISTS order_history (
    id         BIGSERIAL PRIMARY KEY,
    order_id   BIGINT NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
    status     TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_order_history_order ON order_history(order_id);

CREATE TABLE IF NOT EXISTS material_consumption_logs (
    id                  BIGSERIAL PRIMARY KEY,
    production_order_id BIGINT NOT NULL REFERENCES production_orders(id),
    raw_material_id     BIGINT NOT NULL REFERENCES raw_materials(id),
    quantity            NUMERIC(14,4) NOT NULL,
    unit_cost           NUMERIC(14,4) NOT NULL,
    total_cost          NUMERIC(14,4) NOT NULL,
    consumed_at         TIMESTAMPTZ NOT NULL,
    notes               TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_consumption_order ON material_consumption_logs(production_order_id);
CREATE INDEX IF NOT EXISTS idx_consumption_material ON material_consumption_logs(raw_material_id);

CREATE TABLE IF NOT EXISTS stock_movements (
    id                  BIGSERIAL PRIMARY KEY,
    raw_material_id     BIGINT NOT NULL REFERENCES raw_materials(id),
    movement_type       TEXT NOT NULL,
    quantity            NUMERIC(14,4) NOT NULL,
    previous_stock      NUMERIC(14,4) NOT NULL,
    new_stock           NUMERIC(14,4) NOT NULL,
    reason              TEXT NOT NULL DEFAULT '',
    reference           TEXT NOT NULL DEFAULT '',
    production_order_id BIGINT REFERENCES production_orders(id),
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stock_movements_material ON stock_movements(raw_material_id);

CREATE TABLE IF NOT EXISTS finished_goods (
    id                   BIGSERIAL PRIMARY KEY,
    product_id           BIGINT NOT NULL REFERENCES products(id),
    production_order_id  BIGINT NOT NULL REFERENCES production_orders(id),
    template_id          BIGINT REFERENCES product_templates(id) ON DELETE SET NULL,
    quantity             NUMERIC(14,4) NOT NULL,
    current_stock        NUMERIC(14,4) NOT NULL,
    production_date      TIMESTAMPTZ NOT NULL,
    batch_number         TEXT NOT NULL DEFAULT '',
    notes                TEXT NOT NULL DEFAULT '',
    actual_material_cost NUMERIC(14,4) NOT NULL DEFAULT 0,
    actual_labor_cost    NUMERIC(14,4) NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_finished_goods_product ON finished_goods(product_id, production_date);

CREATE TABLE IF NOT EXISTS shipments (
    id                     BIGSERIAL PRIMARY KEY,
    shipment_number        TEXT NOT NULL UNIQUE,
    product_id             BIGINT NOT NULL REFERENCES products(id),
    finished_good_id       BIGINT REFERENCES finished_goods(id),
    quantity               NUMERIC(14,4) NOT NULL,
    customer_name          TEXT NOT NULL DEFAULT '',
    customer_contact       TEXT NOT NULL DEFAULT '',
    destination_address    TEXT NOT NULL DEFAULT '',
    destination_city       TEXT NOT NULL DEFAULT '',
    destination_zone       TEXT NOT NULL DEFAULT '',
    status                 TEXT NOT NULL DEFAULT 'Pending',
    shipment_date          TIMESTAMPTZ NOT NULL,
    expected_delivery_date TIMESTAMPTZ,
    actual_delivery_date   TIMESTAMPTZ,
    notes                  TEXT NOT NULL DEFAULT '',
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status);
CREATE INDEX IF NOT EXISTS idx_shipments_date ON shipments(shipment_date);

CREATE TABLE IF NOT EXISTS number_sequences (
    scope      TEXT NOT NULL,
    day        TEXT NOT NULL,
    last_value INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (scope, day)
);

CREATE TABLE IF NOT EXISTS outbox (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT NOT NULL,
    payload     BYTEA NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    entity_key  TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          BIGSERIAL PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id   BIGINT NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
