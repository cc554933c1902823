package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Generates the bcrypt hash the dashboard expects in OPERATOR_PASSWORD_HASH
// Usage: go run scripts/hash_operator_password.go <password>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/hash_operator_password.go <password>")
		os.Exit(1)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Add this to your .env, quoted so the $ signs survive:\n")
	fmt.Printf("OPERATOR_PASSWORD_HASH='%s'\n", string(hashedPassword))
}
