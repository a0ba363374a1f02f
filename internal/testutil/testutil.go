package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/schema"
)

// IntegrationDSNEnv names the variable holding the DSN of the Postgres database used by integration tests
const IntegrationDSNEnv = "MAILBOX_API_INTEGRATION_DSN"

var pool *sql.DB

func IntegrationDSN() string {
	return os.Getenv(IntegrationDSNEnv)
}

func IntegrationTestsEnabled() bool {
	return IntegrationDSN() != ""
}

// SetupIntegrationTestFixture connects to the integration database and recreates the mailbox schema
func SetupIntegrationTestFixture(queries ...string) *sql.DB {
	var err error
	pool, err = sql.Open("postgres", IntegrationDSN())
	PanicIfError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	PanicIfError(pool.PingContext(ctx))

	for _, table := range []string{schema.TableLetter, schema.TableMailbox, schema.TableStar, schema.TableUser} {
		_, err := pool.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s" CASCADE`, table))
		PanicIfError(err)
	}

	ddl, err := schema.DDL("postgres")
	PanicIfError(err)
	_, err = pool.ExecContext(ctx, ddl)
	PanicIfError(err)

	for _, query := range queries {
		_, err := pool.ExecContext(ctx, query)
		PanicIfError(err)
	}

	return pool
}

func TearDownIntegrationTestFixture() {
	if pool != nil {
		_ = pool.Close()
	}
}

func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

func TestLogger() log.Logger {
	if strings.ToUpper(os.Getenv("TEST_TRACE")) == "ON" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return log.NewZapLogger(logger)
	}

	return log.NewZapLogger(zap.NewNop())
}
