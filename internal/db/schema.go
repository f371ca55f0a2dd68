package db

// Schema contains all SQL statements for the application database.
// Statements are idempotent so the schema can be applied on every startup.
const Schema = `
-- Users table: account records with argon2id password hashes
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    hashed_password TEXT NOT NULL,
    full_name TEXT,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

-- Notes table: both documents and folders, distinguished by is_folder.
-- parent_id forms the hierarchy; NULL means root level.
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    is_folder INTEGER NOT NULL DEFAULT 0,
    parent_id TEXT REFERENCES notes(id),
    cover_image TEXT,
    owner_id TEXT NOT NULL REFERENCES users(id),
    created_at INTEGER NOT NULL,
    updated_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_notes_owner_id ON notes(owner_id);
CREATE INDEX IF NOT EXISTS idx_notes_parent_id ON notes(parent_id);
CREATE INDEX IF NOT EXISTS idx_notes_owner_parent ON notes(owner_id, parent_id);
`
