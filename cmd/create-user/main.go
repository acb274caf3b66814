package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
)

func main() {
	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password (or CREATE_USER_PASSWORD)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: create-user -username <name> [-password <secret>]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("CREATE_USER_PASSWORD")
	}
	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	dbCfg, logCfg, err := config.LoadDatabase()
	logging.Setup(logging.Options{Level: logCfg.Level})
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, dbCfg.URL, repository.PoolOptions{MaxConns: 1})
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	users := service.NewUserService(repository.NewPgUserRepository(pool))
	user, err := users.Create(ctx, *username, *password)
	if errors.Is(err, repository.ErrUsernameTaken) {
		fmt.Fprintf(os.Stderr, "user %q already exists\n", *username)
		os.Exit(1)
	}
	if err != nil {
		logging.Fatal("create user failed", "error", err)
	}

	fmt.Printf("User created\n  ID:       %d\n  Username: %s\n", user.ID, user.Username)
}
