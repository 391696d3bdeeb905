package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/makkenzo/cnc-license-admin/internal/util"
)

// Reads the admin password from stdin and prints the bcrypt hash for auth.adminPasswordHash.
func main() {
	fmt.Fprint(os.Stderr, "Admin password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		log.Fatal("Password must not be empty")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
