package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"librarium/internal/config"
	"librarium/internal/db"
	"librarium/internal/model"
	"librarium/internal/repository"
)

// seedBooks is the starter catalog inserted on first run.
var seedBooks = []model.Book{
	{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", ISBN: "9780135957059", Stock: 4, Active: true, Category: "Software"},
	{Title: "Clean Code", Author: "Robert C. Martin", ISBN: "9780132350884", Stock: 3, Active: true, Category: "Software"},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", Stock: 2, Active: true, Category: "Software"},
	{Title: "The Name of the Wind", Author: "Patrick Rothfuss", ISBN: "9780756404741", Stock: 5, Active: true, Category: "Fantasy"},
	{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", Stock: 3, Active: true, Category: "Science Fiction"},
	{Title: "Sapiens", Author: "Yuval Noah Harari", ISBN: "9780062316097", Stock: 2, Active: true, Category: "History"},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Reservation{},
		&model.Borrow{},
		&model.Rating{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)

	if err := seedAdmin(ctx, userRepo); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	created, skipped, err := seedCatalog(ctx, bookRepo)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	log.Println("Seed completed successfully!")
	log.Printf("  - New books created: %d", created)
	log.Printf("  - Existing books skipped: %d", skipped)
}

// seedAdmin creates the bootstrap system administrator if it does not exist.
// The password comes from ADMIN_PASSWORD; further accounts are created
// through the API by this user.
func seedAdmin(ctx context.Context, repo repository.UserRepository) error {
	email := envOr("ADMIN_EMAIL", "admin@librarium.local")

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		log.Printf("Admin user %s already exists, skipping", email)
		return nil
	}

	password := envOr("ADMIN_PASSWORD", "admin1234")
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     envOr("ADMIN_USERNAME", "sysadmin"),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         model.RoleSystemAdmin,
		Active:       true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("Admin user %s created", email)
	return nil
}

// seedCatalog inserts the starter books, skipping ISBNs already present.
func seedCatalog(ctx context.Context, repo repository.BookRepository) (created int, skipped int, err error) {
	for i := range seedBooks {
		book := seedBooks[i]

		existing, err := repo.FindByISBN(ctx, book.ISBN)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, skipped, err
		}
		if existing != nil {
			skipped++
			continue
		}

		if err := repo.Create(ctx, &book); err != nil {
			return created, skipped, err
		}
		created++
	}
	return created, skipped, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
