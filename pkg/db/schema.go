package db

import "strings"

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Listings: one row per card seen on a result page, keyed by detail href
CREATE TABLE IF NOT EXISTS {{listings}} (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    station TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    price TEXT NOT NULL DEFAULT '',
    size TEXT NOT NULL DEFAULT '',
    age TEXT NOT NULL DEFAULT '',
    sale_price_units INTEGER,
    rent_price_units INTEGER,
    area_m2 REAL,
    updated_at TIMESTAMP NOT NULL,

    -- Enrichment bookkeeping
    processed BOOLEAN NOT NULL DEFAULT 0,
    processing_error TEXT,
    processed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_{{listings}}_processed ON {{listings}}(processed);

-- Details: one row per enriched listing; list and map columns hold JSON
CREATE TABLE IF NOT EXISTS {{details}} (
    id TEXT PRIMARY KEY,
    listing_id TEXT NOT NULL,
    source_url TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    features TEXT NOT NULL DEFAULT '[]',
    images TEXT NOT NULL DEFAULT '[]',
    fields TEXT NOT NULL DEFAULT '{}',
    lat REAL,
    lng REAL,
    sale_price_units INTEGER,
    rent_price_units INTEGER,
    area_m2 REAL,
    scraped_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_{{details}}_listing ON {{details}}(listing_id);

-- Crawl state: last page whose fetch and write both succeeded, per crawl name
CREATE TABLE IF NOT EXISTS {{state}} (
    name TEXT PRIMARY KEY,
    last_completed_page INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);

-- Runs: one row per crawl or enrichment invocation
CREATE TABLE IF NOT EXISTS {{runs}} (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    status TEXT NOT NULL,
    items INTEGER NOT NULL DEFAULT 0,
    successes INTEGER NOT NULL DEFAULT 0,
    errors INTEGER NOT NULL DEFAULT 0,
    message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_{{runs}}_started ON {{runs}}(started_at DESC);
`

func schemaFor(t Tables) string {
	return strings.NewReplacer(
		"{{listings}}", t.Listings,
		"{{details}}", t.Details,
		"{{state}}", t.State,
		"{{runs}}", t.Runs,
	).Replace(schema)
}
