// Package main provides a tool to seed the database with demo data.
//
// It creates a handful of users with book collections and friendship
// edges, plus a few planets, so the network and catalog endpoints have
// something to serve right away.
//
// Usage:
//
//	DATA_PATH=~/planetarium go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/planetarium/planetarium-server/internal/auth"
	"github.com/planetarium/planetarium-server/internal/domain"
	"github.com/planetarium/planetarium-server/internal/id"
	"github.com/planetarium/planetarium-server/internal/store"
	"github.com/planetarium/planetarium-server/internal/store/sqlite"
)

const seedPassword = "password123"

type seedUser struct {
	username string
	books    []seedBook
	friends  []string
}

type seedBook struct {
	name   string
	author string
}

var seedUsers = []seedUser{
	{
		username: "alice",
		books: []seedBook{
			{"Berserk", "Kentaro Miura"},
			{"Vagabond", "Takehiko Inoue"},
		},
		friends: []string{"bob", "carol"},
	},
	{
		username: "bob",
		books: []seedBook{
			{"Monster", "Naoki Urasawa"},
			{"Vagabond", "Takehiko Inoue"},
		},
		friends: []string{"alice"},
	},
	{
		username: "carol",
		books: []seedBook{
			{"Vinland Saga", "Makoto Yukimura"},
		},
		friends: []string{},
	},
	{
		username: "dave",
		books:    []seedBook{},
		friends:  []string{"alice", "bob", "carol"},
	},
}

type seedPlanet struct {
	name       string
	population *int64
	terrains   []string
	climates   []string
}

func pop(n int64) *int64 { return &n }

var seedPlanets = []seedPlanet{
	{"Earth", pop(8_000_000_000), []string{"oceans", "forests", "deserts"}, []string{"temperate"}},
	{"Mars", pop(0), []string{"deserts", "polar caps"}, []string{"cold", "arid"}},
	{"Venus", nil, []string{"volcanic plains"}, []string{"scorching"}},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/planetarium")
	}
	dbPath := filepath.Join(dataPath, "planetarium.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	st, err := sqlite.Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	for _, su := range seedUsers {
		if err := seedOneUser(ctx, st, su, hash); err != nil {
			log.Fatalf("Failed to seed user %s: %v", su.username, err)
		}
	}

	// Friendships need every account in place first.
	for _, su := range seedUsers {
		if err := seedFriendships(ctx, st, su); err != nil {
			log.Fatalf("Failed to seed friendships for %s: %v", su.username, err)
		}
	}

	for _, sp := range seedPlanets {
		if err := seedOnePlanet(ctx, st, sp); err != nil {
			log.Fatalf("Failed to seed planet %s: %v", sp.name, err)
		}
	}

	fmt.Println("Seed complete.")
}

func seedOneUser(ctx context.Context, st *sqlite.Store, su seedUser, passwordHash string) error {
	account, err := st.GetAccountByUsername(ctx, su.username)
	if err == store.ErrNotFound {
		now := time.Now()
		user := &domain.User{
			ID:           id.MustGenerate("user"),
			Username:     su.username,
			Email:        su.username + "@example.com",
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := st.CreateUser(ctx, user); err != nil {
			return err
		}
		account = &domain.Account{UserID: user.ID, Username: su.username, CreatedAt: now}
		if err := st.CreateAccount(ctx, account); err != nil {
			return err
		}
		fmt.Printf("Created user %s (password: %s)\n", su.username, seedPassword)
	} else if err != nil {
		return err
	}

	for _, sb := range su.books {
		book, err := st.GetOrCreateBook(ctx, sb.name, sb.author)
		if err != nil {
			return err
		}
		_, err = st.AddBookToAccount(ctx, account.UserID, book.ID)
		if err != nil && err != store.ErrAlreadyExists {
			return err
		}
	}

	return nil
}

func seedFriendships(ctx context.Context, st *sqlite.Store, su seedUser) error {
	account, err := st.GetAccountByUsername(ctx, su.username)
	if err != nil {
		return err
	}

	for _, friendName := range su.friends {
		friend, err := st.GetAccountByUsername(ctx, friendName)
		if err != nil {
			return err
		}
		_, err = st.CreateFriendship(ctx, account.UserID, friend.UserID)
		if err != nil && err != store.ErrAlreadyExists {
			return err
		}
	}

	return nil
}

func seedOnePlanet(ctx context.Context, st *sqlite.Store, sp seedPlanet) error {
	exists, err := st.PlanetNameExists(ctx, sp.name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	p := &domain.Planet{
		ID:         id.MustGenerate("planet"),
		Name:       sp.name,
		Population: sp.population,
		Terrains:   sp.terrains,
		Climates:   sp.climates,
	}
	p.InitTimestamps()

	if err := st.CreatePlanet(ctx, p); err != nil {
		return err
	}
	fmt.Printf("Created planet %s\n", sp.name)
	return nil
}
