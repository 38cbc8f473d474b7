package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestCartsMigrationEnforcesInvariants(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE UNIQUE INDEX idx_carts_user_active ON carts (user_id) WHERE status = 'active'",
		"CHECK (quantity >= 1 AND quantity <= 20)",
		"CREATE UNIQUE INDEX idx_cart_items_cart_variant ON cart_items (cart_id, variant_id)",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS cart_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationEnforcesInvariants(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE UNIQUE INDEX idx_orders_number ON orders (order_number)",
		"'pending', 'confirmed', 'processing', 'shipped', 'delivered', 'cancelled', 'refunded'",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (grand_total >= 0)",
		"DROP TABLE IF EXISTS order_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAddressesMigrationHasUserTypeUnique(t *testing.T) {
	content := readMigration(t, "*_create_users_and_addresses.sql")

	if !strings.Contains(content, "CREATE UNIQUE INDEX idx_addresses_user_type ON addresses (user_id, type)") {
		t.Errorf("missing unique (user_id, type) index on addresses")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
