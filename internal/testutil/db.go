// Package testutil provides shared helpers for integration tests that
// need a live MongoDB. Tests are skipped unless USERLOCATION_TEST_MONGO_URI
// is set, so the unit suite stays runnable without infrastructure.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/LunarMoonDev/user-location/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnvMongoURI names the environment variable that enables the
// integration suite.
const EnvMongoURI = "USERLOCATION_TEST_MONGO_URI"

// SetupTestDB connects to the test MongoDB and returns a database with
// a unique name so parallel packages never collide. The database is
// dropped and the client disconnected when the test finishes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		t.Skipf("set %s to run MongoDB integration tests", EnvMongoURI)
	}

	ctx, cancel := TestContext()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect to test mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping test mongo: %v", err)
	}

	db := client.Database("userlocation_test_" + primitive.NewObjectID().Hex())

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a generous timeout for test
// database work.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
