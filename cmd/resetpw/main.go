package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"mangashelf/internal/database"
)

const defaultDatabaseDir = "/database"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "mangashelf.db")

	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database at %s: %v\n", dbPath, err)
		fmt.Fprintln(os.Stderr, "Check that DATABASE_DIR points at the server's database directory.")
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "reset":
		if err := resetPassword(db); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "status":
		showStatus(db)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("MangaShelf password management")
	fmt.Println("")
	fmt.Println("Usage: resetpw <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  reset   - Replace the password (invalidates all sessions)")
	fmt.Println("  status  - Check whether a password is configured")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Database directory (default: %s)\n", defaultDatabaseDir)
}

// validateNewPassword applies the same rules as the web setup flow.
// bcrypt truncates beyond 72 bytes, so longer passwords are rejected.
func validateNewPassword(password, confirm []byte) error {
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if len(password) > 72 {
		return errors.New("password must be at most 72 characters")
	}
	return nil
}

func resetPassword(db *database.Database) error {
	if !db.HasUsers() {
		return errors.New("no password configured yet; use the web interface to set one up")
	}

	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if err := validateNewPassword(password, confirm); err != nil {
		return err
	}

	if err := db.UpdatePassword(string(password)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	fmt.Println("Password updated. All existing sessions have been invalidated.")
	return nil
}

func showStatus(db *database.Database) {
	if db.HasUsers() {
		fmt.Println("Status: password is configured")
	} else {
		fmt.Println("Status: no password configured (setup required)")
	}
}
