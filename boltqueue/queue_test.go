package boltqueue_test

import (
	"context"

	. "github.com/dogmatiq/morgue/boltqueue"
	"github.com/dogmatiq/morgue/internal/testing/boltdbtest"
	"github.com/dogmatiq/morgue/internal/testing/queuetest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"
)

var _ = Describe("type Queue", func() {
	var (
		db      *bbolt.DB
		closeDB func()
	)

	queuetest.Declare(
		func(ctx context.Context, in queuetest.In) queuetest.Out {
			db, closeDB = boltdbtest.Open()

			q, err := New(db, "<group>", in.Limits)
			Expect(err).ShouldNot(HaveOccurred())

			return queuetest.Out{
				Queue: q,
			}
		},
		func() {
			closeDB()
		},
	)
})
