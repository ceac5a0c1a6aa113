package main

import (
	"flag"
	"log"

	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"
	"frendo-pos/pkg/config"
	"frendo-pos/pkg/database"
)

func main() {
	// 1. Load Env
	cfg := config.Load()

	email := flag.String("email", cfg.OwnerEmail, "email of the account to reset")
	newPassword := flag.String("password", cfg.OwnerPassword, "new password")
	flag.Parse()

	// 2. Setup Database
	db := database.ConnectDB(cfg.DatabaseURL, false)
	identityRepo := repository.NewIdentityRepo(db)

	// 3. Find identity
	identity, err := identityRepo.FindByEmail(*email)
	if err != nil {
		log.Fatalf("❌ Account %s not found in database: %v", *email, err)
	}

	// 4. Hash new password
	var hashed model.AuthIdentity
	if err := hashed.SetPassword(*newPassword); err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// 5. Update, and sign out the current session
	if err := identityRepo.UpdatePassword(identity.ID, hashed.Password); err != nil {
		log.Fatalf("❌ Failed to update password in DB: %v", err)
	}
	if err := identityRepo.UpdateTokenVersion(identity.ID, ""); err != nil {
		log.Printf("Warning: failed to reset session version: %v", err)
	}

	log.Printf("✅ Success! Password for %s has been reset", identity.Email)
}
