// Command hashtoken prints the bcrypt hash of an admin token, for use as
// ADMIN_TOKEN_HASH in the server's environment.
package main

import (
	"fmt"
	"os"

	"github.com/declabot/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashtoken <token>")
		os.Exit(2)
	}

	hash, err := auth.HashToken(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
