// Command main runs the database seeder for Warbler.
package main

import (
	"flag"
	"log"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.MessagesPerUser, "messages", opts.MessagesPerUser, "Messages per user")
	flag.IntVar(&opts.FollowsPerUser, "follows", opts.FollowsPerUser, "Users each user follows")
	flag.IntVar(&opts.LikesPerUser, "likes", opts.LikesPerUser, "Messages each user likes")
	flag.IntVar(&opts.MaxDays, "days", opts.MaxDays, "Spread message timestamps over this many days")
	flag.BoolVar(&opts.ShouldClean, "clean", true, "Clean database before seeding")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed for reproducible content (0 = time based)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	opts.BcryptCost = cfg.BcryptCost

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	log.Printf("Target: %d users, %d messages each, clean=%v", opts.NumUsers, opts.MessagesPerUser, opts.ShouldClean)
	res, err := seed.Run(db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done: %d users, %d messages, %d follows, %d likes",
		len(res.Users), len(res.Messages), res.Follows, res.Likes)
}
