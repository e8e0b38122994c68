package store

import "fmt"

const (
	PriceTable   = "mandi_prices"
	SoilTable    = "soil_health"
	PolicyTable  = "policy_chunks"
	vectorTable  = "vec_policy_chunks"
	defaultLimit = 50
)

// PriceTableSchema is the column description handed to the SQL generator.
const PriceTableSchema = `mandi_prices(
  state TEXT,          -- e.g. 'Punjab'
  district TEXT,       -- e.g. 'Ludhiana'
  market TEXT,         -- mandi name, e.g. 'Khanna'
  commodity TEXT,      -- e.g. 'Wheat', 'Paddy(Dhan)(Common)', 'Onion'
  variety TEXT,
  grade TEXT,
  arrival_date TEXT,   -- ISO date YYYY-MM-DD
  min_price REAL,      -- rupees per quintal
  max_price REAL,
  modal_price REAL     -- most common traded price
)`

// schemaSQL returns the DDL for the fixed tables. embeddingDim sizes the vec0 index.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS mandi_prices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    state TEXT,
    district TEXT,
    market TEXT,
    commodity TEXT NOT NULL,
    variety TEXT,
    grade TEXT,
    arrival_date TEXT,
    min_price REAL,
    max_price REAL,
    modal_price REAL
);
CREATE INDEX IF NOT EXISTS idx_mandi_prices_commodity ON mandi_prices(commodity);
CREATE INDEX IF NOT EXISTS idx_mandi_prices_arrival ON mandi_prices(arrival_date);

CREATE TABLE IF NOT EXISTS policy_chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    position INTEGER NOT NULL,
    content TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_policy_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);
`, embeddingDim)
}
