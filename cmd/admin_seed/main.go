// Command admin_seed creates a demo buyer and seller with funded wallets and
// prints bearer tokens for them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"escrow/internal/config"
	apperrors "escrow/internal/errors"
	"escrow/internal/logger"
	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/services/wallet"
	"escrow/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	log := logger.New("info")
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.StoreDriver != "postgres" {
		log.Fatal("admin_seed requires STORE_DRIVER=postgres")
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		log.Fatal("SEED_PASSWORD must be set in environment")
	}
	balance, err := models.ParseMoney(getEnv("SEED_BUYER_BALANCE", "1000.00"))
	if err != nil || !balance.IsPositive() {
		log.Fatal("SEED_BUYER_BALANCE must be a positive amount")
	}

	db, err := repositories.OpenPostgres(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repositories.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate schema")
	}
	store := repositories.NewPostgresStore(db)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}

	ctx := context.Background()
	demo := []struct {
		email   string
		name    string
		balance models.Money
	}{
		{getEnv("SEED_BUYER_EMAIL", "buyer@example.com"), "Demo Buyer", balance},
		{getEnv("SEED_SELLER_EMAIL", "seller@example.com"), "Demo Seller", models.ZeroMoney()},
	}

	for _, d := range demo {
		var user *models.User
		err := store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
			existing, err := r.Users.GetByEmail(ctx, d.email)
			if err == nil {
				user = existing
				return nil
			}
			if !errors.Is(err, apperrors.ErrUserNotFound) {
				return err
			}

			user = &models.User{Email: d.email, Name: d.name, Password: string(hashed), Role: "user"}
			if err := r.Users.Create(ctx, user); err != nil {
				return err
			}
			ledger := wallet.NewLedger(r, nil)
			if d.balance.IsPositive() {
				_, err = ledger.Credit(ctx, user.ID, d.balance)
				return err
			}
			_, err = ledger.Lock(ctx, user.ID)
			return err
		})
		if err != nil {
			log.WithError(err).WithField("email", d.email).Fatal("failed to seed user")
		}

		token, err := utils.GenerateToken(cfg.JWTSecret, user, tokenTTL)
		if err != nil {
			log.WithError(err).Fatal("failed to sign token")
		}
		fmt.Printf("%s (id=%d)\n  Authorization: Bearer %s\n", user.Email, user.ID, token)
	}

	// The escrow wallet only exists once something has been funded.
	held := models.ZeroMoney()
	escrowWallet, err := store.Repositories().Wallets.GetEscrow(ctx)
	switch {
	case err == nil:
		held = escrowWallet.Balance
	case !errors.Is(err, apperrors.ErrWalletNotFound):
		log.WithError(err).Fatal("failed to read escrow wallet")
	}
	fmt.Printf("escrow wallet balance: %s\n", held)
}
