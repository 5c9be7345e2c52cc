// seed loads categories and users from a YAML file into the database.
// Existing rows are matched by name (categories) or email (users) and
// skipped, so the script is safe to re-run.
//
// Usage: go run ./scripts/seed [-file scripts/seed/seed.yaml]
//
// Database connection: uses the same config.yaml / PG* environment
// variables as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	"github.com/civicworks/grievance-engine/pkg/config"
	"github.com/civicworks/grievance-engine/pkg/models"
)

// seedFile is the YAML shape the seed script consumes.
type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
	Users      []seedUser     `yaml:"users"`
}

type seedCategory struct {
	Name      string         `yaml:"name"`
	LocalName string         `yaml:"local_name"`
	Color     string         `yaml:"color"`
	Children  []seedCategory `yaml:"children"`
}

type seedUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
	Role  string `yaml:"role"`
}

func main() {
	file := flag.String("file", "scripts/seed/seed.yaml", "Path to seed YAML file")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read seed file: %v\n", err)
		os.Exit(1)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse seed file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load("seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	created := 0
	for _, c := range seed.Categories {
		n, err := seedCategoryTree(ctx, conn, c, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed category %q: %v\n", c.Name, err)
			os.Exit(1)
		}
		created += n
	}
	fmt.Printf("Categories created: %d\n", created)

	created = 0
	for _, u := range seed.Users {
		if !models.IsValidRole(u.Role) {
			fmt.Fprintf(os.Stderr, "Invalid role %q for user %q\n", u.Role, u.Email)
			os.Exit(1)
		}
		n, err := seedOneUser(ctx, conn, u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed user %q: %v\n", u.Email, err)
			os.Exit(1)
		}
		created += n
	}
	fmt.Printf("Users created: %d\n", created)
}

// seedCategoryTree inserts a category and its children, returning the
// number of rows created.
func seedCategoryTree(ctx context.Context, conn *pgx.Conn, c seedCategory, parentID *uuid.UUID) (int, error) {
	var id uuid.UUID
	err := conn.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, c.Name).Scan(&id)
	created := 0
	if err == pgx.ErrNoRows {
		id = uuid.New()
		_, err = conn.Exec(ctx, `
			INSERT INTO categories (id, name, local_name, parent_id, color, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)`,
			id, c.Name, c.LocalName, parentID, c.Color)
		if err != nil {
			return 0, fmt.Errorf("insert failed: %w", err)
		}
		created = 1
	} else if err != nil {
		return 0, fmt.Errorf("lookup failed: %w", err)
	}

	for _, child := range c.Children {
		n, err := seedCategoryTree(ctx, conn, child, &id)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func seedOneUser(ctx context.Context, conn *pgx.Conn, u seedUser) (int, error) {
	var id uuid.UUID
	err := conn.QueryRow(ctx, `SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`, u.Email).Scan(&id)
	if err == nil {
		return 0, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("lookup failed: %w", err)
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, role, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)`,
		uuid.New(), u.Name, u.Email, u.Phone, u.Role)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}
	return 1, nil
}
