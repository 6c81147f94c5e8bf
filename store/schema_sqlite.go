package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS product_templates (
    id                      INTEGER PRIMARY KEY AUTOINCREMENT,
    name                    TEXT NOT NULL,
    description             TEXT NOT NULL DEFAULT '',
    model_type              TEXT NOT NULL DEFAULT '',
    is_active               INTEGER NOT NULL DEFAULT 1,
    total_material_cost     NUMERIC NOT NULL DEFAULT 0,
    total_labor_cost        NUMERIC NOT NULL DEFAULT 0,
    total_estimated_minutes INTEGER NOT NULL DEFAULT 0,
    created_at              TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at              TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS raw_materials (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    code          TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    unit          TEXT NOT NULL DEFAULT 'kg',
    category      TEXT NOT NULL DEFAULT '',
    current_stock NUMERIC NOT NULL DEFAULT 0,
    minimum_stock NUMERIC NOT NULL DEFAULT 0,
    unit_cost     NUMERIC NOT NULL DEFAULT 0,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS template_parts (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    template_id       INTEGER NOT NULL REFERENCES product_templates(id) ON DELETE CASCADE,
    parent_part_id    INTEGER REFERENCES template_parts(id) ON DELETE CASCADE,
    name              TEXT NOT NULL,
    part_type         TEXT NOT NULL DEFAULT 'Component',
    quantity          NUMERIC NOT NULL DEFAULT 1,
    unit              TEXT NOT NULL DEFAULT 'unit',
    unit_cost         NUMERIC NOT NULL DEFAULT 0,
    labor_cost        NUMERIC NOT NULL DEFAULT 0,
    estimated_minutes INTEGER NOT NULL DEFAULT 0,
    position          INTEGER NOT NULL DEFAULT 0,
    raw_material_id   INTEGER REFERENCES raw_materials(id),
    notes             TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_parts_template ON template_parts(template_id);
CREATE INDEX IF NOT EXISTS idx_parts_parent ON template_parts(parent_part_id);

CREATE TABLE IF NOT EXISTS products (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    model         TEXT NOT NULL DEFAULT '',
    size          TEXT NOT NULL DEFAULT '',
    capacity      INTEGER NOT NULL DEFAULT 0,
    color         TEXT NOT NULL DEFAULT '',
    layers        INTEGER NOT NULL DEFAULT 1,
    weight        NUMERIC NOT NULL DEFAULT 0,
    description   TEXT NOT NULL DEFAULT '',
    template_id   INTEGER REFERENCES product_templates(id) ON DELETE SET NULL,
    material_cost NUMERIC NOT NULL DEFAULT 0,
    labor_cost    NUMERIC NOT NULL DEFAULT 0,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS product_materials (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id        INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    raw_material_id   INTEGER NOT NULL REFERENCES raw_materials(id),
    quantity_required NUMERIC NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_product_materials_product ON product_materials(product_id);

CREATE TABLE IF NOT EXISTS production_orders (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    order_number   TEXT NOT NULL UNIQUE,
    product_id     INTEGER NOT NULL REFERENCES products(id),
    quantity       INTEGER NOT NULL DEFAULT 1,
    status         TEXT NOT NULL DEFAULT 'Pending',
    shift          TEXT NOT NULL DEFAULT '',
    order_date     TEXT NOT NULL,
    completed_date TEXT,
    notes          TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_production_orders_product ON production_orders(product_id);
CREATE INDEX IF NOT EXISTS idx_production_orders_status ON production_orders(status);

CREATE TABLE IF NOT EXISTS order_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id   INTEGER NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
    status     TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_order_history_order ON order_history(order_id);

CREATE TABLE IF NOT EXISTS material_consumption_logs (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    production_order_id INTEGER NOT NULL REFERENCES production_orders(id),
    raw_material_id     INTEGER NOT NULL REFERENCES raw_materials(id),
    quantity            NUMERIC NOT NULL,
    unit_cost           NUMERIC NOT NULL,
    total_cost          NUMERIC NOT NULL,
    consumed_at         TEXT NOT NULL,
    notes               TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_consumption_order ON material_consumption_logs(production_order_id);
CREATE INDEX IF NOT EXISTS idx_consumption_material ON material_consumption_logs(raw_material_id);

CREATE TABLE IF NOT EXISTS stock_movements (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    raw_material_id     INTEGER NOT NULL REFERENCES raw_materials(id),
    movement_type       TEXT NOT NULL,
    quantity            NUMERIC NOT NULL,
    previous_stock      NUMERIC NOT NULL,
    new_stock           NUMERIC NOT NULL,
    reason              TEXT NOT NULL DEFAULT '',
    reference           TEXT NOT NULL DEFAULT '',
    production_order_id INTEGER REFERENCES production_orders(id),
    created_at          TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_stock_movements_material ON stock_movements(raw_material_id);

CREATE TABLE IF NOT EXISTS finished_goods (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id           INTEGER NOT NULL REFERENCES products(id),
    production_order_id  INTEGER NOT NULL REFERENCES production_orders(id),
    template_id          INTEGER REFERENCES product_templates(id) ON DELETE SET NULL,
    quantity             NUMERIC NOT NULL,
    current_stock        NUMERIC NOT NULL,
    production_date      TEXT NOT NULL,
    batch_number         TEXT NOT NULL DEFAULT '',
    notes                TEXT NOT NULL DEFAULT '',
    actual_material_cost NUMERIC NOT NULL DEFAULT 0,
    actual_labor_cost    NUMERIC NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at           TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_finished_goods_product ON finished_goods(product_id, production_date);

CREATE TABLE IF NOT EXISTS shipments (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    shipment_number        TEXT NOT NULL UNIQUE,
    product_id             INTEGER NOT NULL REFERENCES products(id),
    finished_good_id       INTEGER REFERENCES finished_goods(id),
    quantity               NUMERIC NOT NULL,
    customer_name          TEXT NOT NULL DEFAULT '',
    customer_contact       TEXT NOT NULL DEFAULT '',
    destination_address    TEXT NOT NULL DEFAULT '',
    destination_city       TEXT NOT NULL DEFAULT '',
    destination_zone       TEXT NOT NULL DEFAULT '',
    status                 TEXT NOT NULL DEFAULT 'Pending',
    shipment_date          TEXT NOT NULL,
    expected_delivery_date TEXT,
    actual_delivery_date   TEXT,
    notes                  TEXT NOT NULL DEFAULT '',
    created_at             TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at             TEXT NOT NULL DEFAULT (datetime('now','localtime'))
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
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    entity_key  TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
`
