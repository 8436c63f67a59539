package envelope_test

import (
	"time"

	"github.com/dogmatiq/configkit"
	. "github.com/dogmatiq/morgue/envelope"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type MetaData", func() {
	var md MetaData

	BeforeEach(func() {
		md = MetaData{
			MessageID: "<id>",
			Source: Source{
				Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
				Handler:     configkit.MustNewIdentity("<handler-name>", "0b0b0b0b-0b0b-40b0-80b0-0b0b0b0b0b0b"),
			},
			CreatedAt:   time.Now(),
			Description: "<description>",
		}
	})

	Describe("func Validate()", func() {
		It("returns nil if the meta-data is fully populated", func() {
			Expect(md.Validate()).ShouldNot(HaveOccurred())
		})

		It("returns an error if the message ID is empty", func() {
			md.MessageID = ""
			Expect(md.Validate()).Should(HaveOccurred())
		})

		It("returns an error if the created-at time is zero", func() {
			md.CreatedAt = time.Time{}
			Expect(md.Validate()).Should(HaveOccurred())
		})

		It("returns an error if the source is not valid", func() {
			md.Source.Application = configkit.Identity{}
			Expect(md.Validate()).Should(HaveOccurred())
		})
	})
})

var _ = Describe("type Source", func() {
	Describe("func Validate()", func() {
		It("returns an error if the application identity is invalid", func() {
			s := Source{}
			Expect(s.Validate()).Should(HaveOccurred())
		})

		It("returns an error if the handler identity is invalid", func() {
			s := Source{
				Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
				Handler:     configkit.Identity{Name: "<handler-name>"},
			}
			Expect(s.Validate()).Should(HaveOccurred())
		})

		It("allows a zero-value handler identity", func() {
			s := Source{
				Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
			}
			Expect(s.Validate()).ShouldNot(HaveOccurred())
		})
	})
})
