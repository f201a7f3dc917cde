package main

import (
	"context"
	"fmt"
	"os"

	"findash/pkg/config"
	"findash/pkg/connectors"

	"github.com/joho/godotenv"
)

// refreshtoken exchanges the QuickBooks refresh token for a fresh
// access token and prints both, for pasting into .env. Access tokens
// expire hourly; run this when the API starts returning 401s.
func main() {
	godotenv.Load()

	cfg := config.FromEnv()
	if cfg.QBClientID == "" || cfg.QBClientSecret == "" || cfg.QBRefreshToken == "" {
		fmt.Println("[FATAL] QB_CLIENT_ID, QB_CLIENT_SECRET, and QB_REFRESH_TOKEN must be set")
		os.Exit(1)
	}

	qb := connectors.NewQuickBooks(cfg)
	pair, err := qb.RefreshAccessToken(context.Background())
	if err != nil {
		fmt.Printf("[FATAL] Token refresh failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Token refresh succeeded. Update your .env:")
	fmt.Printf("QB_ACCESS_TOKEN=%s\n", pair.AccessToken)
	fmt.Printf("QB_REFRESH_TOKEN=%s\n", pair.RefreshToken)
	fmt.Printf("# access token expires in %d seconds\n", pair.ExpiresIn)
}
