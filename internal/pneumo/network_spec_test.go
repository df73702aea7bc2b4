package pneumo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
)

var _ = Describe("valve network", func() {
	var (
		up, down *pneumo.GasState
		net      *pneumo.Network
	)

	BeforeEach(func() {
		up = pneumo.NewGasState(4.0e5, pneumo.TAtm, 0.01)
		down = pneumo.NewGasState(1.5e5, pneumo.TAtm, 0.01)
		net = pneumo.NewNetwork(&pneumo.Line{
			Name:  "up_to_down",
			Valve: pneumo.NewCheckValve("up_to_down", 10000, 4000),
			From:  up,
			To:    down,
		})
	})

	It("conserves total mass across transfers", func() {
		total := up.Mass + down.Mass
		for i := 0; i < 500; i++ {
			Expect(net.Evaluate(0.001, true)).To(Succeed())
		}
		Expect(up.Mass + down.Mass).To(BeNumerically("~", total, 1e-12))
	})

	It("flows only down the pressure gradient", func() {
		m0 := down.Mass
		total := up.Mass + down.Mass
		Expect(net.Evaluate(0.001, true)).To(Succeed())
		Expect(down.Mass).To(BeNumerically(">", m0))
		Expect(up.Mass + down.Mass).To(BeNumerically("~", total, 1e-12))
	})

	It("equalizes into the hysteresis band", func() {
		for i := 0; i < 20000; i++ {
			Expect(net.Evaluate(0.001, true)).To(Succeed())
		}
		// Flow stops once the differential reseats; the residual
		// differential sits inside [reseat, cracking].
		dp := up.Pressure - down.Pressure
		Expect(dp).To(BeNumerically("<", 10000))
		Expect(dp).To(BeNumerically(">=", 0))
	})

	It("maintains the gas law on both ends", func() {
		for i := 0; i < 500; i++ {
			Expect(net.Evaluate(0.001, true)).To(Succeed())
		}
		Expect(up.LawResidual()).To(BeNumerically("<", 1e-9))
		Expect(down.LawResidual()).To(BeNumerically("<", 1e-9))
	})

	It("reports valve status in evaluation order", func() {
		Expect(net.Evaluate(0.001, true)).To(Succeed())
		states := net.ValveStates()
		Expect(states).To(HaveLen(1))
		Expect(states[0].Name).To(Equal("up_to_down"))
		Expect(states[0].Open).To(BeTrue())
		Expect(states[0].MassFlow).To(BeNumerically(">", 0))
	})
})
