// issue-token mints an access token for a user. Operators run it when
// onboarding a new user or when a frontend session needs a fresh token.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"

	"github.com/fujishima/keihi/internal/auth"
)

func main() {
	userID := flag.String("user", "", "User ID to issue the token for")
	secret := flag.String("secret", "", "Signing secret (or set SECRET_KEY env var)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	gotenv.Load()

	if *secret == "" {
		*secret = os.Getenv("SECRET_KEY")
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "ERROR: SECRET_KEY not set and no --secret flag provided")
		fmt.Fprintln(os.Stderr, "Usage: issue-token --user <id> [--secret <key>] [--ttl 24h]")
		os.Exit(1)
	}
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --user is required")
		os.Exit(1)
	}

	token, err := auth.NewTokenService(*secret, *ttl).Issue(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User:    %s\n", *userID)
	fmt.Printf("Expires: %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Printf("Token:   %s\n", token)
}
