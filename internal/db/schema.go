package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// sqliteSchema is the full SQLite database schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    warehouse_id  INTEGER REFERENCES warehouses(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS warehouses (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    address    TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT,
    price        TEXT NOT NULL DEFAULT '0',
    category     TEXT,
    quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    warehouse_id INTEGER REFERENCES warehouses(id),
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_items_warehouse_name ON items(warehouse_id, name);

CREATE TABLE IF NOT EXISTS requests (
    id                INTEGER PRIMARY KEY,
    user_id           INTEGER NOT NULL REFERENCES users(id),
    item_id           INTEGER NOT NULL REFERENCES items(id),
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    from_warehouse_id INTEGER NOT NULL REFERENCES warehouses(id),
    to_warehouse_id   INTEGER NOT NULL REFERENCES warehouses(id),
    status            TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at        DATETIME NOT NULL,
    decided_at        DATETIME,
    decided_by        INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);

CREATE TABLE IF NOT EXISTS movements (
    id                INTEGER PRIMARY KEY,
    item_id           INTEGER NOT NULL REFERENCES items(id),
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    from_warehouse_id INTEGER NOT NULL REFERENCES warehouses(id),
    to_warehouse_id   INTEGER NOT NULL REFERENCES warehouses(id),
    type              TEXT NOT NULL,
    moved_at          DATETIME NOT NULL,
    user_id           INTEGER REFERENCES users(id),
    request_id        INTEGER REFERENCES requests(id)
);

CREATE INDEX IF NOT EXISTS idx_movements_from ON movements(from_warehouse_id);
CREATE INDEX IF NOT EXISTS idx_movements_to ON movements(to_warehouse_id);

CREATE TABLE IF NOT EXISTS settings (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// mysqlSchema mirrors sqliteSchema for MySQL 8. Statements are separated by
// semicolons and executed one at a time.
const mysqlSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGINT AUTO_INCREMENT PRIMARY KEY,
    username      VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    role          VARCHAR(16) NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    warehouse_id  BIGINT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME NULL,
    INDEX idx_users_username (username)
);

CREATE TABLE IF NOT EXISTS warehouses (
    id         BIGINT AUTO_INCREMENT PRIMARY KEY,
    name       VARCHAR(255) NOT NULL,
    address    TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME NULL
);

CREATE TABLE IF NOT EXISTS items (
    id           BIGINT AUTO_INCREMENT PRIMARY KEY,
    name         VARCHAR(255) NOT NULL,
    description  TEXT,
    price        DECIMAL(14,4) NOT NULL DEFAULT 0,
    category     VARCHAR(255),
    quantity     INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    warehouse_id BIGINT NULL,
    image        MEDIUMBLOB,
    image_mime   VARCHAR(64),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME NULL,
    INDEX idx_items_warehouse_name (warehouse_id, name),
    FOREIGN KEY (warehouse_id) REFERENCES warehouses(id)
);

CREATE TABLE IF NOT EXISTS requests (
    id                BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id           BIGINT NOT NULL,
    item_id           BIGINT NOT NULL,
    quantity          INT NOT NULL CHECK (quantity > 0),
    from_warehouse_id BIGINT NOT NULL,
    to_warehouse_id   BIGINT NOT NULL,
    status            VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at        DATETIME(6) NOT NULL,
    decided_at        DATETIME(6) NULL,
    decided_by        BIGINT NULL,
    INDEX idx_requests_status (status),
    FOREIGN KEY (user_id) REFERENCES users(id),
    FOREIGN KEY (item_id) REFERENCES items(id),
    FOREIGN KEY (from_warehouse_id) REFERENCES warehouses(id),
    FOREIGN KEY (to_warehouse_id) REFERENCES warehouses(id)
);

CREATE TABLE IF NOT EXISTS movements (
    id                BIGINT AUTO_INCREMENT PRIMARY KEY,
    item_id           BIGINT NOT NULL,
    quantity          INT NOT NULL CHECK (quantity > 0),
    from_warehouse_id BIGINT NOT NULL,
    to_warehouse_id   BIGINT NOT NULL,
    type              VARCHAR(32) NOT NULL,
    moved_at          DATETIME(6) NOT NULL,
    user_id           BIGINT NULL,
    request_id        BIGINT NULL,
    INDEX idx_movements_from (from_warehouse_id),
    INDEX idx_movements_to (to_warehouse_id),
    FOREIGN KEY (item_id) REFERENCES items(id),
    FOREIGN KEY (request_id) REFERENCES requests(id)
);

CREATE TABLE IF NOT EXISTS settings (
    name  VARCHAR(64) PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        VARCHAR(64) PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, driver string) error {
	switch driver {
	case DriverSQLite:
		if _, err := db.Exec(sqliteSchema); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	case DriverMySQL:
		// go-sql-driver rejects multi-statement queries by default.
		for _, stmt := range strings.Split(mysqlSchema, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	return nil
}
