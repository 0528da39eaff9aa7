package config

import (
	"os"

	"pizza-franchise-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret signs session tokens; FactoryURL/FactoryAPIKey point at
// the external pizza factory. All are set by Load.
var (
	JWTSecret     []byte
	FactoryURL    string
	FactoryAPIKey string
	AdminEmail    string
	AdminPassword string
	LogLevel      string
)

// ListPerPage is the page size for paginated listings
const ListPerPage = 10

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from a .env file (if present) and the
// environment. Must run before InitDB or token generation.
func Load() {
	_ = godotenv.Load()

	JWTSecret = []byte(getEnv("JWT_SECRET", "pizza_franchise_super_secret_2024"))
	FactoryURL = getEnv("FACTORY_URL", "https://pizza-factory.example.com/api/order")
	FactoryAPIKey = getEnv("FACTORY_API_KEY", "")
	AdminEmail = getEnv("ADMIN_EMAIL", "admin@pizza.test")
	AdminPassword = getEnv("ADMIN_PASSWORD", "admin")
	LogLevel = getEnv("LOG_LEVEL", "info")
}

func InitDB(log *zap.Logger) {
	var err error
	dsn := getEnv("DB_PATH", "pizza_franchise.db")
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.RoleGrant{},
		&models.Franchise{},
		&models.Store{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	log.Info("database connected and migrated", zap.String("dsn", dsn))
}

// SeedAdmin creates the default global administrator when no admin
// grant exists yet. Idempotent across restarts.
func SeedAdmin(log *zap.Logger) {
	var count int64
	DB.Model(&models.RoleGrant{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("failed to hash admin password", zap.Error(err))
	}

	admin := models.User{
		Name:         "global admin",
		Email:        AdminEmail,
		PasswordHash: string(hash),
		Roles:        []models.RoleGrant{{Role: models.RoleAdmin}},
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Fatal("failed to seed admin user", zap.Error(err))
	}
	log.Info("seeded default admin", zap.String("email", AdminEmail))
}
