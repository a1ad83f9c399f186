package migrations

// This Go migration replaces the SQL version because links.slug holds the full
// target URL and needs a unique index. MySQL cannot index an unbounded TEXT
// column, so it gets a VARCHAR sized to fit the 3072-byte utf8mb4 key limit.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateLinks, downCreateLinks)
}

func upCreateLinks(ctx context.Context, tx *sql.Tx) error {
	urlType := "TEXT"
	if dialect == "mysql" {
		urlType = "VARCHAR(768)"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE links (
    id         VARCHAR(36)  PRIMARY KEY,
    title      VARCHAR(255) NOT NULL,
    url        %[1]s        NOT NULL,
    slug       %[1]s        NOT NULL,
    type       VARCHAR(16)  NOT NULL,
    medium     VARCHAR(16)  NOT NULL,
    clicks     BIGINT       NOT NULL DEFAULT 0,
    posted_by  VARCHAR(36)  NOT NULL REFERENCES users (id),
    created_at TIMESTAMP    NOT NULL,
    updated_at TIMESTAMP    NOT NULL
)`, urlType),
		`CREATE UNIQUE INDEX idx_links_slug ON links (slug)`,
		`CREATE INDEX idx_links_created_at ON links (created_at)`,
		`CREATE INDEX idx_links_clicks ON links (clicks)`,
		`CREATE TABLE link_categories (
    link_id     VARCHAR(36) NOT NULL REFERENCES links (id) ON DELETE CASCADE,
    category_id VARCHAR(36) NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
    position    INTEGER     NOT NULL DEFAULT 0,
    PRIMARY KEY (link_id, category_id)
)`,
		`CREATE INDEX idx_link_categories_category_id ON link_categories (category_id)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create links tables: %w", err)
		}
	}
	return nil
}

func downCreateLinks(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS link_categories`,
		`DROP TABLE IF EXISTS links`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
