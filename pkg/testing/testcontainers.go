package testing

import (
	"context"
	stdtesting "testing"

	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/paklog/workload-planning-service/pkg/mongodb"
)

// MongoDBImage is the server version integration tests run against.
const MongoDBImage = "mongo:6"

// StartMongoDB runs a throwaway MongoDB container and connects to database
// on it through the service's own client. The container and the connection
// are released when tb finishes.
func StartMongoDB(ctx context.Context, tb stdtesting.TB, database string) *mongo.Database {
	tb.Helper()

	container, err := tcmongo.Run(ctx, MongoDBImage,
		tcmongo.WithUsername("test"),
		tcmongo.WithPassword("test"),
	)
	testcontainers.CleanupContainer(tb, container)
	if err != nil {
		tb.Fatalf("start mongodb container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		tb.Fatalf("mongodb connection string: %v", err)
	}

	config := mongodb.DefaultConfig()
	config.URI = uri
	config.Database = database
	config.AppName = "integration-test"

	client, err := mongodb.NewClient(ctx, config)
	if err != nil {
		tb.Fatalf("connect to mongodb container: %v", err)
	}
	tb.Cleanup(func() { _ = client.Close(context.Background()) })

	return client.Database()
}
