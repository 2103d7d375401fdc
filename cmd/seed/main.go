// Command seed populates the board database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"mungboard/internal/config"
	"mungboard/internal/database"
	"mungboard/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 0, "Override the preset's user count")
	presetPath := flag.String("preset", "", "YAML preset file (defaults to the built-in preset)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Board Seeder")
	log.Println("===============")

	preset := seed.DefaultPreset()
	if *presetPath != "" {
		var err error
		if preset, err = seed.LoadPresetFile(*presetPath); err != nil {
			log.Fatalf("Failed to load preset: %v", err)
		}
	}
	if *numUsers > 0 {
		preset.Users = *numUsers
	}
	log.Printf("Preset %q: %d users, %d posts each, clean=%v\n", preset.Name, preset.Users, preset.PostsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, preset)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d posts, %d comments.\n", sum.Users, sum.Posts, sum.Comments)
	log.Printf("📧 All demo users have the password: %s\n", preset.UserPassword)
	log.Printf("🔒 All demo posts have the password: %s\n", preset.PostPassword)
}
