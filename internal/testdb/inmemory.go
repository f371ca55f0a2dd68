package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/db"
)

// NewInMemory creates an in-memory application database for tests. Each call
// gets its own shared-cache database so connections within a test see the
// same data without touching disk.
func NewInMemory(name string) (*db.DB, error) {
	if name == "" {
		name = uuid.NewString()
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	sqlDB, err := sql.Open(db.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(10)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping in-memory database: %w", err)
	}

	if err := applyFastSQLitePragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}

	if _, err := sqlDB.Exec(db.Schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize in-memory schema: %w", err)
	}

	return db.NewFromSQL(sqlDB), nil
}

// CreateUser inserts a user row directly and returns its id. Notes carry a
// foreign key to users, so most fixtures need at least one of these.
func CreateUser(database *db.DB, email string) (string, error) {
	id := uuid.NewString()
	_, err := database.SQL().ExecContext(context.Background(),
		`INSERT INTO users (id, email, hashed_password, full_name, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		id, email, "unused-test-hash", "Test User", time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert test user: %w", err)
	}
	return id, nil
}

func applyFastSQLitePragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA secure_delete=OFF",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
