package store

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Readings: one generated reading per image and language
CREATE TABLE IF NOT EXISTS readings (
    reading_id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_hash TEXT NOT NULL,         -- hex SHA-256 of the image bytes
    language TEXT NOT NULL,           -- BCP 47 tag, e.g. en, hi
    model TEXT,
    features TEXT NOT NULL,           -- JSON array of line features
    reading TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (image_hash, language)
);

CREATE INDEX IF NOT EXISTS idx_readings_created ON readings(created_at);
`
