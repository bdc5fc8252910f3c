package database

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables and indexes the service needs. Every
// statement is idempotent so the server can run it on each startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            CHAR(36)     NOT NULL,
			name          VARCHAR(100) NOT NULL,
			email         VARCHAR(255) NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS categories (
			id         CHAR(36)     NOT NULL,
			user_id    CHAR(36)     NOT NULL,
			name       VARCHAR(100) NOT NULL,
			kind       ENUM('income','expense') NOT NULL,
			created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_categories_user_name (user_id, name),
			CONSTRAINT fk_categories_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id           CHAR(36)     NOT NULL,
			user_id      CHAR(36)     NOT NULL,
			category_id  CHAR(36)     NULL,
			type         ENUM('income','expense') NOT NULL,
			title        VARCHAR(255) NOT NULL,
			note         VARCHAR(1024) NOT NULL DEFAULT '',
			amount_cents BIGINT       NOT NULL,
			occurred_at  DATE         NOT NULL,
			created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_transactions_user_occurred (user_id, occurred_at),
			KEY idx_transactions_category (category_id),
			CONSTRAINT fk_transactions_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE,
			CONSTRAINT fk_transactions_category FOREIGN KEY (category_id)
				REFERENCES categories (id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
