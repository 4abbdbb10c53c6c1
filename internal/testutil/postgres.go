package testutil

import (
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func SetupPostgresContainer() (*postgres.PostgresContainer, func(), error) {
	const ImageName = "docker.io/postgres:17-alpine"
	pgContainer, err := postgres.Run(TestContext,
		ImageName,
		postgres.WithDatabase("somnial"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)

	tearDown := func() {
		_ = pgContainer.Terminate(TestContext)
	}

	return pgContainer, tearDown, err
}
