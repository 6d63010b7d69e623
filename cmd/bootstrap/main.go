package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"dream-planner-api/internal/config"
	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 迁移表结构
	if err := dataLayer.PgClient.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 可选：创建演示用户
	email := entity.NormalizeEmail(os.Getenv("BOOTSTRAP_USER_EMAIL"))
	password := os.Getenv("BOOTSTRAP_USER_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("BOOTSTRAP_USER_EMAIL/BOOTSTRAP_USER_PASSWORD not set, skipping demo user.")
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	exists, err := dataLayer.UserRepo.ExistsByEmail(ctx, email)
	if err != nil {
		log.Fatalf("failed to check user existence: %v", err)
	}

	if !exists {
		fmt.Printf("Creating user: %s...\n", email)
		user := entity.NewUser(email, "Dreamer")
		if err := user.SetPassword(password); err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		if err := dataLayer.UserRepo.Create(ctx, user); err != nil {
			log.Fatalf("failed to create user: %v", err)
		}
		fmt.Println("User created successfully.")
	} else {
		fmt.Printf("User %s already exists.\n", email)
	}

	fmt.Println("Bootstrap completed successfully.")
}
