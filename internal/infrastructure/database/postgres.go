package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/config"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/internal/infrastructure/repository"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		// Access
		&entity.Branch{},
		&entity.User{},
		&entity.Role{},
		&entity.Permission{},

		// Ledger
		&entity.Shift{},
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.Settlement{},
		&entity.SettlementLine{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// rolePermissions is the default permission set of each seeded role.
var rolePermissions = map[enum.Role][]string{
	enum.RoleCashier: {
		entity.PermissionSell,
		entity.PermissionSettlementView,
		entity.PermissionSettlementConfirm,
	},
	enum.RoleBranchManager: {
		entity.PermissionSell,
		entity.PermissionRefund,
		entity.PermissionSettlementView,
		entity.PermissionSettlementConfirm,
		entity.PermissionPrinter,
	},
	enum.RoleAdmin: {
		entity.PermissionSell,
		entity.PermissionRefund,
		entity.PermissionSettlementView,
		entity.PermissionSettlementConfirm,
		entity.PermissionPrinter,
	},
}

// SeedDefaultData seeds permissions, roles, a default branch and, when
// configured, the admin user. It is safe to run on every boot.
func SeedDefaultData(db *gorm.DB, log *zap.Logger) error {
	log.Info("seeding default data")
	ctx := context.Background()

	s := &seeder{
		permissions: repository.NewPermissionRepository(db),
		roles:       repository.NewRoleRepository(db),
		users:       repository.NewUserRepository(db),
		branches:    repository.NewBranchRepository(db),
		log:         log,
	}

	if err := s.seedPermissions(ctx); err != nil {
		return err
	}
	if err := s.seedRoles(ctx); err != nil {
		return err
	}
	branch, err := s.seedBranch(ctx)
	if err != nil {
		return err
	}
	s.seedAdmin(ctx, branch)

	log.Info("default data seeding completed")
	return nil
}

type seeder struct {
	permissions domainRepo.PermissionRepository
	roles       domainRepo.RoleRepository
	users       domainRepo.UserRepository
	branches    domainRepo.BranchRepository
	log         *zap.Logger
}

func (s *seeder) seedPermissions(ctx context.Context) error {
	names := []string{
		entity.PermissionSell,
		entity.PermissionRefund,
		entity.PermissionSettlementView,
		entity.PermissionSettlementConfirm,
		entity.PermissionPrinter,
	}
	for _, name := range names {
		existing, err := s.permissions.GetByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to look up permission %s: %w", name, err)
		}
		if existing != nil {
			continue
		}
		if err := s.permissions.Create(ctx, &entity.Permission{Name: name, GuardName: "web"}); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", name, err)
		}
	}
	return nil
}

func (s *seeder) seedRoles(ctx context.Context) error {
	all, err := s.permissions.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}
	byName := make(map[string]uint, len(all))
	for _, p := range all {
		byName[p.Name] = p.ID
	}

	for role, permNames := range rolePermissions {
		existing, err := s.roles.GetByName(ctx, string(role))
		if err != nil {
			return fmt.Errorf("failed to look up role %s: %w", role, err)
		}
		if existing != nil {
			continue
		}
		r := &entity.Role{Name: string(role), GuardName: "web"}
		if err := s.roles.Create(ctx, r); err != nil {
			s.log.Warn("failed to create role", zap.String("role", string(role)), zap.Error(err))
			continue
		}
		ids := make([]uint, 0, len(permNames))
		for _, n := range permNames {
			ids = append(ids, byName[n])
		}
		if err := s.roles.SyncPermissions(ctx, r.ID, ids); err != nil {
			s.log.Warn("failed to assign role permissions", zap.String("role", string(role)), zap.Error(err))
		}
	}
	return nil
}

func (s *seeder) seedBranch(ctx context.Context) (*entity.Branch, error) {
	code := viper.GetString("DEFAULT_BRANCH_CODE")
	if code == "" {
		code = "MAIN"
	}

	existing, err := s.branches.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up branch: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	name := viper.GetString("DEFAULT_BRANCH_NAME")
	if name == "" {
		name = "Main Branch"
	}
	branch := &entity.Branch{
		Code:    code,
		Name:    name,
		Address: viper.GetString("DEFAULT_BRANCH_ADDRESS"),
		TaxID:   viper.GetString("DEFAULT_BRANCH_TAX_ID"),
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to seed branch: %w", err)
	}
	s.log.Info("default branch created", zap.String("code", code))
	return branch, nil
}

// seedAdmin creates the admin user if configured via environment variables.
func (s *seeder) seedAdmin(ctx context.Context, branch *entity.Branch) {
	username := viper.GetString("ADMIN_USERNAME")
	password := viper.GetString("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}

	if existing, err := s.users.GetByUsername(ctx, username); err != nil || existing != nil {
		if existing != nil {
			s.log.Info("admin user already exists", zap.String("username", username))
		}
		return
	}

	email := viper.GetString("ADMIN_EMAIL")
	if email != "" {
		if taken, err := s.users.GetByEmail(ctx, email); err != nil || taken != nil {
			s.log.Warn("admin email already in use, admin user not created", zap.String("email", email))
			return
		}
	}

	adminRole, err := s.roles.GetByName(ctx, string(enum.RoleAdmin))
	if err != nil || adminRole == nil {
		s.log.Warn("admin role missing, admin user not created", zap.Error(err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Warn("failed to hash admin password", zap.Error(err))
		return
	}

	fullName := viper.GetString("ADMIN_NAME")
	if fullName == "" {
		fullName = "Store Admin"
	}
	firstName, lastName, _ := strings.Cut(fullName, " ")

	branchID := branch.ID
	admin := &entity.User{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		BranchID:  &branchID,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		s.log.Warn("failed to create admin user", zap.Error(err))
		return
	}
	if err := s.users.AssignRole(ctx, admin.ID, adminRole.ID); err != nil {
		s.log.Warn("failed to assign admin role", zap.Error(err))
		return
	}
	s.log.Info("admin user created", zap.String("username", username))
}
