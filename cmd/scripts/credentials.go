// Command scripts mints operator credentials for a deployment:
//
//	go run ./cmd/scripts token -sub dealer-1 -role dealer -ttl 24h
//	go run ./cmd/scripts trigger-hash -key <shared key>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/config"
	"github.com/inzamam-virk/lottery-app/internal/middleware"
	"github.com/inzamam-virk/lottery-app/pkg/jwt"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		sub := fs.String("sub", "", "dealer or admin id")
		role := fs.String("role", middleware.RoleDealer, "dealer or admin")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		_ = fs.Parse(os.Args[2:])

		if *role != middleware.RoleDealer && *role != middleware.RoleAdmin {
			fatal("role must be dealer or admin", "role", *role)
		}
		cfg, err := config.LoadConfig(".")
		if err != nil {
			fatal("Failed to load configuration", "error", err)
		}
		token, err := jwt.Generate(cfg.JWT.Secret, *sub, *role, *ttl, time.Now())
		if err != nil {
			fatal("Failed to generate token", "error", err)
		}
		fmt.Println(token)

	case "trigger-hash":
		fs := flag.NewFlagSet("trigger-hash", flag.ExitOnError)
		key := fs.String("key", "", "shared trigger key sent in "+middleware.TriggerKeyHeader)
		_ = fs.Parse(os.Args[2:])

		if *key == "" {
			fatal("key is required")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*key), bcrypt.DefaultCost)
		if err != nil {
			fatal("Failed to hash key", "error", err)
		}
		fmt.Println(string(hash))

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scripts token -sub <id> [-role dealer|admin] [-ttl 24h]")
	fmt.Fprintln(os.Stderr, "       scripts trigger-hash -key <key>")
	os.Exit(2)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
