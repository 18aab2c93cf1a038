package bootstrap

import (
	"testing"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "Admin@Test.com", nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "admin@test.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role %q, got %q", models.RoleAdmin, u.Role)
	}
	if u.ClubID != nil {
		t.Error("expected admin to have no club")
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := testutil.NewFixtures(t, db).CreateVisitor(ctx, "Existing User", "existing@test.com")

	if err := ensureAdmin(ctx, db, "existing@test.com", nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected promotion to admin, got %q", u.Role)
	}
	if u.DisplayName != "Existing User" {
		t.Errorf("display name changed to %q", u.DisplayName)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := ensureAdmin(ctx, db, "admin@test.com", nil, testLogger()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	n, err := db.Collection("users").CountDocuments(ctx, map[string]any{"email": "admin@test.com"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected one admin, got %d", n)
	}
}

func TestValidateConfig(t *testing.T) {
	good := AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		SessionKey:        "0123456789abcdef0123456789abcdef",
		ChatAppendTimeout: 5e9,
		ChatHistoryLimit:  500,
		ChatPostLimit:     20,
		AuditLogAuth:      "all",
		AuditLogAdmin:     "db",
		AuditLogClub:      "off",
	}
	prod := &config.CoreConfig{Env: "prod"}
	dev := &config.CoreConfig{Env: "dev"}

	if err := ValidateConfig(prod, good, testLogger()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		core   *config.CoreConfig
		mutate func(*AppConfig)
	}{
		{"short key in prod", prod, func(c *AppConfig) { c.SessionKey = "short" }},
		{"zero post limit", prod, func(c *AppConfig) { c.ChatPostLimit = 0 }},
		{"negative history", prod, func(c *AppConfig) { c.ChatHistoryLimit = -1 }},
		{"zero append timeout", prod, func(c *AppConfig) { c.ChatAppendTimeout = 0 }},
		{"bad audit mode", dev, func(c *AppConfig) { c.AuditLogClub = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			if err := ValidateConfig(tt.core, cfg, testLogger()); err == nil {
				t.Error("expected error")
			}
		})
	}

	short := good
	short.SessionKey = "short"
	if err := ValidateConfig(dev, short, testLogger()); err != nil {
		t.Errorf("short key should be accepted in dev: %v", err)
	}
}
