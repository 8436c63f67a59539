package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"time"

	. "github.com/dogmatiq/dogma/fixtures"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/fixtures"
	"github.com/dogmatiq/morgue/internal/testing/queuetest"
	"github.com/dogmatiq/morgue/queue"
	"github.com/dogmatiq/morgue/sqlqueue"
	. "github.com/dogmatiq/morgue/sqlqueue/mysql"
	"github.com/dogmatiq/sqltest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type driver", func() {
	var (
		database *sqltest.Database
		db       *sql.DB
	)

	for _, pair := range sqltest.CompatiblePairs(sqltest.MySQL, sqltest.MariaDB) {
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

var _ = Describe("func UpdateLetter()", func() {
	for _, pair := range sqltest.CompatiblePairs(sqltest.MySQL, sqltest.MariaDB) {
		pair := pair // capture loop variable

		When("using "+pair.Product.Name(), func() {
			var (
				ctx      context.Context
				cancel   func()
				database *sqltest.Database
				db       *sql.DB
				q        *sqlqueue.Queue
			)

			BeforeEach(func() {
				ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)

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

				now := time.Now()

				q, err = sqlqueue.New(
					ctx,
					db,
					"<group>",
					queue.Limits{},
					sqlqueue.WithDriver(Driver),
					sqlqueue.WithClock(func() time.Time {
						return now
					}),
				)
				Expect(err).ShouldNot(HaveOccurred())
			})

			AfterEach(func() {
				err := Driver.DropSchema(
					ctx,
					db,
					sqlqueue.DefaultSchema.LetterTable,
					sqlqueue.DefaultSchema.ClaimTable,
				)
				Expect(err).ShouldNot(HaveOccurred())

				err = database.Close()
				Expect(err).ShouldNot(HaveOccurred())

				cancel()
			})

			It("updates letters even when no column value changes", func() {
				// MySQL counts a row as affected only when a column value
				// actually changes. A requeue under a frozen clock that
				// retains the cause and diagnostics changes nothing, and must
				// still find the letter.
				l, err := q.Enqueue(
					ctx,
					"<sequence>",
					fixtures.NewLetter(
						"",
						"<sequence>",
						MessageA1,
						errors.New("<failure>"),
					),
				)
				Expect(err).ShouldNot(HaveOccurred())

				_, err = q.Requeue(ctx, l, deadletter.Enqueue(nil))
				Expect(err).ShouldNot(HaveOccurred())
			})
		})
	}
})
