// Command seed fills the database with a demo user and a set of example
// folders and notes. Safe to run repeatedly: existing records are left
// untouched.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/auth"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/config"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/db"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/notes"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/obs"
)

const (
	seedEmail    = "voyager@anctext.com"
	seedPassword = "voyager123"
	seedFullName = "Cosmic Voyager"
)

type seedNote struct {
	title   string
	content string
	cover   string
}

type seedFolder struct {
	title string
	cover string
	notes []seedNote
}

var seedFolders = []seedFolder{
	{
		title: "AI & Neural Architectures",
		cover: "https://images.unsplash.com/photo-1677442136019-21780ecad995?q=80&w=2000&auto=format&fit=crop",
		notes: []seedNote{
			{
				title:   "Large Language Models (LLMs)",
				content: "# LLM Research\n\nLLMs are trained on massive datasets and use transformer architectures to predict the next token in a sequence.\n\n### Key Components:\n- **Attention Mechanism**: Allows the model to focus on relevant parts of the input.\n- **Positional Encoding**: Helps the model understand the order of words.\n- **Tokenization**: Breaking down text into smaller units.",
				cover:   "https://images.unsplash.com/photo-1620712943543-bcc4638ef808?q=80&w=2000&auto=format&fit=crop",
			},
			{
				title:   "Diffusion Models for Image Gen",
				content: "# Diffusion Models\n\nThese models work by slowly adding noise to an image and then learning to reverse the process.\n\n```javascript\n// Pseudo-code for diffusion step\nfunction reverseStep(x_t, t) {\n  const predictedNoise = model.predict(x_t, t);\n  return x_t - predictedNoise;\n}\n```",
				cover:   "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=2000&auto=format&fit=crop",
			},
		},
	},
	{
		title: "Cloud Native Systems",
		cover: "https://images.unsplash.com/photo-1451187580459-43490279c0fa?q=80&w=2000&auto=format&fit=crop",
		notes: []seedNote{
			{
				title:   "Kubernetes Orchestration",
				content: "# Kubernetes (K8s) Overview\n\nK8s is an open-source system for automating deployment, scaling, and management of containerized applications.\n\n- **Pods**: Smallest deployable units.\n- **Services**: Abstract way to expose applications.\n- **Deployments**: Declarative updates for Pods.",
				cover:   "https://images.unsplash.com/photo-1667372333374-0d3c06639806?q=80&w=2000&auto=format&fit=crop",
			},
		},
	},
	{
		title: "Advanced React Patterns",
		cover: "https://images.unsplash.com/photo-1633356122544-f134324a6cee?q=80&w=2000&auto=format&fit=crop",
		notes: []seedNote{
			{
				title:   "Compound Components",
				content: "# Compound Components\n\nThis pattern allows you to create components that work together but have a flexible structure.\n\n```javascript\n<Tabs>\n  <Tabs.List>\n    <Tabs.Trigger value='tab1'>Tab 1</Tabs.Trigger>\n  </Tabs.List>\n  <Tabs.Content value='tab1'>Content 1</Tabs.Content>\n</Tabs>\n```",
				cover:   "https://images.unsplash.com/photo-1555066931-4365d14bab8c?q=80&w=2000&auto=format&fit=crop",
			},
		},
	},
}

func main() {
	addr, envFile := config.ParseFlags()
	cfg := config.MustLoadConfig(addr, envFile)
	obs.Init()

	database, err := db.Open(cfg.DatabasePath, cfg.DatabaseKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	if err := seed(ctx, database); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Seeding complete.")
}

func seed(ctx context.Context, database *db.DB) error {
	userID, err := ensureUser(ctx, database)
	if err != nil {
		return err
	}
	fmt.Printf("Seeding data for user: %s\n", seedEmail)

	svc := notes.NewService(database)

	for _, folder := range seedFolders {
		folderID, err := findByTitle(ctx, database, userID, folder.title, nil)
		if err != nil {
			return err
		}
		if folderID == "" {
			fmt.Printf("Adding folder: %s\n", folder.title)
			cover := folder.cover
			created, err := svc.Create(ctx, userID, notes.CreateNoteParams{
				Title:      folder.title,
				IsFolder:   true,
				CoverImage: &cover,
			})
			if err != nil {
				return fmt.Errorf("create folder %q: %w", folder.title, err)
			}
			folderID = created.ID
		}

		for _, note := range folder.notes {
			existing, err := findByTitle(ctx, database, userID, note.title, &folderID)
			if err != nil {
				return err
			}
			if existing != "" {
				continue
			}
			fmt.Printf("  Adding note: %s\n", note.title)
			cover := note.cover
			if _, err := svc.Create(ctx, userID, notes.CreateNoteParams{
				Title:      note.title,
				Content:    note.content,
				ParentID:   &folderID,
				CoverImage: &cover,
			}); err != nil {
				return fmt.Errorf("create note %q: %w", note.title, err)
			}
		}
	}

	return nil
}

func ensureUser(ctx context.Context, database *db.DB) (string, error) {
	var id string
	err := database.SQL().QueryRowContext(ctx,
		"SELECT id FROM users WHERE email = ?", seedEmail).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("look up seed user: %w", err)
	}

	fmt.Println("Creating default voyager user...")
	hashed, err := auth.HashPassword(seedPassword)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	id = uuid.NewString()
	_, err = database.SQL().ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, full_name, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		id, seedEmail, hashed, seedFullName, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("insert seed user: %w", err)
	}
	return id, nil
}

func findByTitle(ctx context.Context, database *db.DB, ownerID, title string, parentID *string) (string, error) {
	query := "SELECT id FROM notes WHERE owner_id = ? AND title = ? AND parent_id IS NULL"
	args := []any{ownerID, title}
	if parentID != nil {
		query = "SELECT id FROM notes WHERE owner_id = ? AND title = ? AND parent_id = ?"
		args = append(args, *parentID)
	}

	var id string
	err := database.SQL().QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up %q: %w", title, err)
	}
	return id, nil
}
