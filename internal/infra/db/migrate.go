package db

import "database/sql"

// MigrateUp creates the five core tables -- accounts, posts, enrichments,
// profiles, reports -- plus the indexes backing the Store's due-account
// and window queries. Statements are idempotent so the bootstrap task can
// invoke this unconditionally on every `--recreate-db` run; account
// bootstrap data itself is supplied by an external CSV import, out of
// this module's scope.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS accounts (
    id                   SERIAL PRIMARY KEY,
    handle               TEXT NOT NULL UNIQUE,
    tier                 VARCHAR(10) NOT NULL DEFAULT 'MEDIUM',
    status               VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    last_fetched_at      TIMESTAMPTZ,
    next_fetch_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    consecutive_failures INTEGER NOT NULL DEFAULT 0,
    avg_posts_per_day    DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT chk_account_tier CHECK (tier IN ('HIGH', 'MEDIUM', 'LOW')),
    CONSTRAINT chk_account_status CHECK (status IN ('PENDING', 'OK', 'FAILED', 'QUARANTINED'))
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id           SERIAL PRIMARY KEY,
    account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    post_url     TEXT NOT NULL UNIQUE,
    body         TEXT NOT NULL DEFAULT '',
    kind         VARCHAR(20) NOT NULL DEFAULT 'ORIGINAL',
    media_urls   TEXT[] NOT NULL DEFAULT '{}',
    published_at TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT chk_post_kind CHECK (kind IN ('ORIGINAL', 'REPLY', 'QUOTE', 'LINK_SHARE'))
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS enrichments (
    post_id             INTEGER PRIMARY KEY REFERENCES posts(id) ON DELETE CASCADE,
    status              VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    summary             VARCHAR(50) NOT NULL DEFAULT '',
    tag                 TEXT NOT NULL DEFAULT '',
    content_type        TEXT NOT NULL DEFAULT '',
    entities            JSONB NOT NULL DEFAULT '[]',
    deep_interpretation TEXT NOT NULL DEFAULT '',
    image_description   TEXT,
    model_name          TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT chk_enrichment_status CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED'))
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
    account_id   INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
    document     JSONB NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS reports (
    id           SERIAL PRIMARY KEY,
    kind         VARCHAR(20) NOT NULL,
    title        TEXT NOT NULL,
    body         TEXT NOT NULL,
    window_start TIMESTAMPTZ NOT NULL,
    window_end   TIMESTAMPTZ NOT NULL,
    account_id   INTEGER REFERENCES accounts(id) ON DELETE CASCADE,
    model_name   TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT chk_report_kind CHECK (kind IN ('DAILY_LIGHT', 'DAILY_DEEP', 'MONTHLY_KOL'))
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_accounts_tier_next_fetch ON accounts(tier, next_fetch_at) WHERE status != 'QUARANTINED'`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_status_next_fetch ON accounts(status, next_fetch_at)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_account_id ON posts(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_enrichments_status ON enrichments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_kind_created_at ON reports(kind, created_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops every table this module owns, in dependency order.
// Intended for local/dev `--recreate-db` flows only.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS reports CASCADE`,
		`DROP TABLE IF EXISTS profiles CASCADE`,
		`DROP TABLE IF EXISTS enrichments CASCADE`,
		`DROP TABLE IF EXISTS posts CASCADE`,
		`DROP TABLE IF EXISTS accounts CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
