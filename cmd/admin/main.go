// Command admin is the operator CLI: it applies the schema and creates
// staff accounts, which cannot be obtained through self-registration.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/planetarium-booking/internal/config"
	"github.com/iliyamo/planetarium-booking/internal/database"
	"github.com/iliyamo/planetarium-booking/internal/model"
	"github.com/iliyamo/planetarium-booking/internal/repository"
)

func main() {
	var (
		migrate     = pflag.Bool("migrate", false, "apply the embedded schema")
		createStaff = pflag.Bool("create-staff", false, "create a staff account (or promote an existing one)")
		email       = pflag.String("email", "", "staff account email")
		password    = pflag.String("password", "", "staff account password (defaults to $STAFF_PASSWORD)")
	)
	pflag.Parse()

	if !*migrate && !*createStaff {
		pflag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("admin: database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("admin: migrate: %v", err)
		}
		fmt.Println("schema applied")
	}

	if *createStaff {
		pw := *password
		if pw == "" {
			pw = os.Getenv("STAFF_PASSWORD")
		}
		if err := ensureStaff(ctx, repository.NewUserRepo(db), *email, pw, cfg.BcryptCost); err != nil {
			log.Fatalf("admin: create staff: %v", err)
		}
	}
}

// ensureStaff creates the account with the staff role, or promotes it
// when the email is already registered.
func ensureStaff(ctx context.Context, users *repository.UserRepo, email, password string, cost int) error {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return errors.New("--email is required")
	}
	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := users.SetRole(ctx, u.ID, model.RoleStaff); err != nil {
			return err
		}
		fmt.Printf("account %s promoted to staff\n", email)
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}
	if password == "" {
		return errors.New("--password is required for a new account")
	}
	id, err := users.Create(ctx, email, password, model.RoleStaff, cost)
	if err != nil {
		return err
	}
	fmt.Printf("staff account %s created (id %d)\n", email, id)
	return nil
}
