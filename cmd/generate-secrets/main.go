package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

// newSecret returns a hex-encoded random secret of the given byte length
func newSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func main() {
	accessSecret, err := newSecret(32)
	if err != nil {
		log.Fatalf("Failed to generate access secret: %v", err)
	}
	refreshSecret, err := newSecret(32)
	if err != nil {
		log.Fatalf("Failed to generate refresh secret: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
	fmt.Println()
	fmt.Println("Keep these secrets out of version control.")
}
