//go:build cgo
// +build cgo

package sqlite_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/dogmatiq/morgue/internal/testing/queuetest"
	"github.com/dogmatiq/morgue/sqlqueue"
	. "github.com/dogmatiq/morgue/sqlqueue/sqlite"
	"github.com/dogmatiq/sqltest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type driver", func() {
	var (
		database *sqltest.Database
		db       *sql.DB
	)

	for _, pair := range sqltest.CompatiblePairs(sqltest.SQLite) {
		pair := pair // capture loop variable

		queuetest.Declare(
			func(ctx context.Context, in queuetest.In) queuetest.Out {
				var err error
				database, err = sqltest.NewDatabase(ctx, pair.Driver, pair.Product)
				Expect(err).ShouldNot(HaveOccurred())

				db, err = database.Open()
				Expect(err).ShouldNot(HaveOccurred())

				err = Driver.CreateSchema(
					ctx,
					db,
					sqlqueue.DefaultSchema.LetterTable,
					sqlqueue.DefaultSchema.ClaimTable,
				)
				Expect(err).ShouldNot(HaveOccurred())

				q, err := sqlqueue.New(
					ctx,
					db,
					"<group>",
					in.Limits,
					sqlqueue.WithDriver(Driver),
				)
				Expect(err).ShouldNot(HaveOccurred())

				return queuetest.Out{
					Queue: q,
				}
			},
			func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()

				err := Driver.DropSchema(
					ctx,
					db,
					sqlqueue.DefaultSchema.LetterTable,
					sqlqueue.DefaultSchema.ClaimTable,
				)
				Expect(err).ShouldNot(HaveOccurred())

				err = database.Close()
				Expect(err).ShouldNot(HaveOccurred())
			},
		)
	}
})
