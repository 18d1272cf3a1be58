package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/tasklist/core/internal/adapters/cache"
	"github.com/tasklist/core/internal/adapters/reminder"
	"github.com/tasklist/core/internal/adapters/repository"
	"github.com/tasklist/core/internal/application/services"
	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/config"
	"github.com/tasklist/core/internal/infrastructure/database"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/infrastructure/redis"
	"github.com/tasklist/core/internal/infrastructure/server"
	"github.com/tasklist/core/internal/infrastructure/validation"
	"github.com/tasklist/core/internal/ports"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskList API server",
		Long:  "Start the RPC server with health, metrics and swagger routes",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Run up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("up", steps)
		},
	}
	upCmd.Flags().Int("steps", 0, "Number of migrations to apply (0 = all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Run down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to roll back (0 = all)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed default categories and a demo user",
		Run: func(cmd *cobra.Command, args []string) {
			runSeed()
		},
	}
}

// NewCacheCommand creates the cache maintenance command
func NewCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Read cache maintenance",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached entries matching a pattern",
		Long:  "Drop cached statistics and categories, e.g. after a migration changes their shape",
		Run: func(cmd *cobra.Command, args []string) {
			pattern, _ := cmd.Flags().GetString("pattern")
			clearCache(pattern)
		},
	}
	clearCmd.Flags().String("pattern", "*", "Glob of keys to drop, relative to the cache prefix")

	cacheCmd.AddCommand(clearCmd)
	return cacheCmd
}

// NewRemindersCommand creates the reminder inspection command
func NewRemindersCommand() *cobra.Command {
	remindersCmd := &cobra.Command{
		Use:   "reminders",
		Short: "Due-date reminder commands",
	}

	dueCmd := &cobra.Command{
		Use:   "due",
		Short: "List reminders that are due",
		Run: func(cmd *cobra.Command, args []string) {
			within, _ := cmd.Flags().GetDuration("within")
			listDueReminders(within)
		},
	}
	dueCmd.Flags().Duration("within", 0, "Also list reminders due within this window")

	remindersCmd.AddCommand(dueCmd)
	return remindersCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Run: func(cmd *cobra.Command, args []string) {
			req := ports.RegisterRequest{}
			req.Email, _ = cmd.Flags().GetString("email")
			req.Password, _ = cmd.Flags().GetString("password")
			req.Name, _ = cmd.Flags().GetString("name")
			req.Age, _ = cmd.Flags().GetInt("age")
			req.HowFound, _ = cmd.Flags().GetString("how-found")

			createUser(req)
		},
	}

	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password, at least 6 characters (required)")
	createUserCmd.Flags().String("name", "", "Display name (required)")
	createUserCmd.Flags().Int("age", 0, "Age (required)")
	createUserCmd.Flags().String("how-found", "CLI", "How the user found the app")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskList version",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				fmt.Println("TaskList (configuration not loaded)")
				return
			}
			fmt.Printf("%s v%s (%s)\n", cfg.App.Name, cfg.App.Version, cfg.App.Environment)
		},
	}
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

func bootstrap() (*config.Config, *logger.Logger, *database.DB) {
	cfg, appLogger := loadConfig()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to connect to database", "error", err)
	}

	return cfg, appLogger, db
}

// optionalRedis returns nil when Redis is disabled or unreachable
func optionalRedis(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client, err := redis.New(ctx, cfg.Redis, appLogger)
	if err != nil {
		appLogger.Warnw("Redis unavailable, running without cache", "error", err)
		return nil
	}
	return client
}

func requireRedis(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		appLogger.Fatalw("Redis is disabled; set REDIS_ENABLED=true")
	}
	client, err := redis.New(ctx, cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to connect to Redis", "error", err)
	}
	return client
}

func readCache(rdb *redis.Client) ports.CacheRepository {
	if rdb == nil {
		return cache.NewNoopCache()
	}
	return cache.NewRedisCache(rdb.Client, server.CachePrefix)
}

func runServer() {
	cfg, appLogger, db := bootstrap()
	defer appLogger.Close()
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := optionalRedis(ctx, cfg, appLogger)
	if rdb != nil {
		defer rdb.Close()
	}

	srv, err := server.New(cfg, db, rdb, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting TaskList API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"redis", rdb != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalw("Server failed", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Errorw("Graceful shutdown failed", "error", err)
		}
	}
}

func runMigration(direction string, steps int) {
	cfg, appLogger, db := bootstrap()
	defer db.Close()

	m, err := db.Migrator(cfg.Database.MigrationsPath)
	if err != nil {
		appLogger.Fatalw("Failed to create migration instance", "error", err)
	}

	switch {
	case direction == "up" && steps > 0:
		err = m.Steps(steps)
	case direction == "up":
		err = m.Up()
	case steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return
	}
	if err != nil {
		appLogger.Fatalw("Migration failed", "direction", direction, "error", err)
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
}

func showMigrationVersion() {
	cfg, appLogger, db := bootstrap()
	defer db.Close()

	m, err := db.Migrator(cfg.Database.MigrationsPath)
	if err != nil {
		appLogger.Fatalw("Failed to create migration instance", "error", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return
	}
	if err != nil {
		appLogger.Fatalw("Failed to get migration version", "error", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func defaultCategories() []*entities.Category {
	icon := func(s string) *string { return &s }
	return []*entities.Category{
		{Name: "Trabalho", Color: "#3B82F6", Icon: icon("briefcase")},
		{Name: "Pessoal", Color: "#10B981", Icon: icon("user")},
		{Name: "Estudos", Color: "#F59E0B", Icon: icon("book")},
		{Name: "Saúde", Color: "#EF4444", Icon: icon("heart")},
	}
}

func runSeed() {
	cfg, appLogger, db := bootstrap()
	defer db.Close()
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db.DB)
	todoRepo := repository.NewTodoRepository(db.DB)
	categoryRepo := repository.NewCategoryRepository(db.DB)

	// Seeding through the live cache keeps a running server's catalogue fresh
	rdb := optionalRedis(ctx, cfg, appLogger)
	if rdb != nil {
		defer rdb.Close()
	}
	store := readCache(rdb)

	categoryService := services.NewCategoryService(categoryRepo, store, cfg.Cache.CategoriesTTL, appLogger)
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	todoService := services.NewTodoService(todoRepo, categoryRepo, store, nil, cfg.Cache.StatisticsTTL, appLogger)

	categories := defaultCategories()
	if err := categoryService.Seed(ctx, categories); err != nil {
		appLogger.Fatalw("Failed to seed categories", "error", err)
	}
	fmt.Printf("Seeded %d categories\n", len(categories))

	resp, err := authService.Register(ctx, ports.RegisterRequest{
		Email:    "user@example.com",
		Password: "password123",
		Name:     "Test User",
		Age:      25,
		HowFound: "Search Engine",
	})
	if errors.Is(err, entities.ErrDuplicateEmail) {
		fmt.Println("Demo user already exists, skipping sample todo")
		return
	}
	if err != nil {
		appLogger.Fatalw("Failed to create demo user", "error", err)
	}
	fmt.Println("Created user:", resp.User.Email)

	due := time.Now().Add(24 * time.Hour)
	_, err = todoService.Create(ctx, resp.User.ID, ports.CreateTodoRequest{
		Title:      "Completar relatório mensal",
		Priority:   entities.PriorityUrgent,
		DueDate:    &due,
		CategoryID: &categories[0].ID,
	})
	if err != nil {
		appLogger.Fatalw("Failed to create sample todo", "error", err)
	}
	fmt.Println("Created sample todo")
}

func clearCache(pattern string) {
	cfg, appLogger := loadConfig()
	defer appLogger.Close()

	ctx := context.Background()
	rdb := requireRedis(ctx, cfg, appLogger)
	defer rdb.Close()

	if err := readCache(rdb).DeletePattern(ctx, pattern); err != nil {
		appLogger.Fatalw("Failed to clear cache", "pattern", pattern, "error", err)
	}
	fmt.Printf("Cleared cache keys matching %q\n", server.CachePrefix+pattern)
}

func listDueReminders(within time.Duration) {
	cfg, appLogger := loadConfig()
	defer appLogger.Close()

	ctx := context.Background()
	rdb := requireRedis(ctx, cfg, appLogger)
	defer rdb.Close()

	due, err := reminder.NewRedisScheduler(rdb.Client).Due(ctx, time.Now().Add(within))
	for _, r := range due {
		fmt.Printf("%s  %s  %s  user=%s\n", r.DueAt.In(cfg.App.Location()).Format(time.RFC3339), r.TodoID, r.Title, r.UserID)
	}
	fmt.Printf("%d reminder(s) due\n", len(due))

	if err != nil {
		appLogger.Fatalw("Some reminders could not be read", "error", err)
	}
}

func createUser(req ports.RegisterRequest) {
	if err := validation.New().Struct(req); err != nil {
		log.Fatalf("Invalid user: %v", err)
	}

	cfg, appLogger, db := bootstrap()
	defer db.Close()

	authService := services.NewAuthService(repository.NewUserRepository(db.DB), cfg.JWT, appLogger)
	resp, err := authService.Register(context.Background(), req)
	if err != nil {
		appLogger.Fatalw("Failed to create user", "email", req.Email, "error", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", resp.User.ID)
	fmt.Printf("  Email: %s\n", resp.User.Email)
	fmt.Printf("  Name: %s\n", resp.User.Name)
	fmt.Printf("  Token: %s\n", resp.Token)
}
