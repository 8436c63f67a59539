package envelope_test

import (
	"fmt"
	"time"

	"github.com/dogmatiq/configkit"
	. "github.com/dogmatiq/dogma/fixtures"
	"github.com/dogmatiq/marshalkit"
	. "github.com/dogmatiq/marshalkit/fixtures"
	. "github.com/dogmatiq/morgue/envelope"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Packer", func() {
	var (
		seq    int
		now    time.Time
		packer *Packer
	)

	BeforeEach(func() {
		seq = 0
		now = time.Now()
		packer = &Packer{
			Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
			Marshaler:   Marshaler,
			GenerateID: func() string {
				seq++
				return fmt.Sprintf("%08d", seq)
			},
			Now: func() time.Time {
				return now
			},
		}
	})

	Describe("func Pack()", func() {
		It("returns a new envelope", func() {
			env := packer.Pack(
				MessageA1,
				configkit.MustNewIdentity("<handler-name>", "0b0b0b0b-0b0b-40b0-80b0-0b0b0b0b0b0b"),
			)

			packet := marshalkit.MustMarshal(Marshaler, MessageA1)

			Expect(env).To(Equal(
				&Envelope{
					MetaData: MetaData{
						MessageID: "00000001",
						Source: Source{
							Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
							Handler:     configkit.MustNewIdentity("<handler-name>", "0b0b0b0b-0b0b-40b0-80b0-0b0b0b0b0b0b"),
						},
						CreatedAt:   now,
						Description: "{A1}",
					},
					Message:      MessageA1,
					PortableName: "MessageA",
					Packet:       packet,
				},
			))
		})

		It("accepts a zero-value handler identity", func() {
			env := packer.Pack(MessageA1, configkit.Identity{})

			Expect(env.Source.Handler.IsZero()).To(BeTrue())
		})
	})

	It("generates UUIDs by default", func() {
		packer.GenerateID = nil

		env := packer.Pack(MessageA1, configkit.Identity{})
		_, err := uuid.Parse(env.MessageID)
		Expect(err).ShouldNot(HaveOccurred())
	})

	It("uses the system clock by default", func() {
		packer.Now = nil

		env := packer.Pack(MessageA1, configkit.Identity{})
		Expect(env.CreatedAt).To(BeTemporally("~", time.Now()))
	})
})
