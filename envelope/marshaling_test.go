package envelope_test

import (
	. "github.com/dogmatiq/dogma/fixtures"
	. "github.com/dogmatiq/marshalkit/fixtures"
	. "github.com/dogmatiq/morgue/envelope"
	"github.com/dogmatiq/morgue/fixtures"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func UnmarshalMessage()", func() {
	It("populates the envelope's message from its packet", func() {
		env := fixtures.NewEnvelope("<id>", MessageA1)
		env.Message = nil

		err := UnmarshalMessage(Marshaler, env)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(env.Message).To(Equal(MessageA1))
	})

	It("does nothing if the message is already populated", func() {
		env := fixtures.NewEnvelope("<id>", MessageA1)
		env.Packet.MediaType = "<unknown>"

		err := UnmarshalMessage(Marshaler, env)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(env.Message).To(Equal(MessageA1))
	})

	It("returns an error if the marshaler fails", func() {
		env := fixtures.NewEnvelope("<id>", MessageA1)
		env.Message = nil
		env.Packet.MediaType = "<unknown>"

		err := UnmarshalMessage(Marshaler, env)
		Expect(err).Should(HaveOccurred())
	})
})

var _ = Describe("func MustUnmarshalMessage()", func() {
	It("returns the unmarshaled message", func() {
		env := fixtures.NewEnvelope("<id>", MessageA1)
		env.Message = nil

		m := MustUnmarshalMessage(Marshaler, env)
		Expect(m).To(Equal(MessageA1))
	})

	It("panics if the message can not be unmarshaled", func() {
		env := fixtures.NewEnvelope("<id>", MessageA1)
		env.Message = nil
		env.Packet.MediaType = "<unknown>"

		Expect(func() {
			MustUnmarshalMessage(Marshaler, env)
		}).To(Panic())
	})
})
