// Hashes a password with the same bcrypt cost the server uses. Handy for
// seeding users directly in the database during development.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
