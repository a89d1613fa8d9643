package elect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
)

var _ = Describe("PowerBus", func() {
	var nodes *gunns.NodeList

	BeforeEach(func() {
		nodes = gunns.NewNodeList("bus")
		nodes.SetPotential(0, 120)
	})

	It("folds its loads into one shunt and reports flows", func() {
		b := elect.NewPowerBusBuilder(elect.PowerBusConfig{Name: "main_bus"})
		lamp, _ := loads.NewResistiveLoad(loads.Config{Name: "lamp"}, 60)
		fan, _ := loads.NewConstantPowerLoad(loads.Config{Name: "fan"}, 120)
		Expect(b.AddUserLoad(lamp)).To(Succeed())
		Expect(b.AddUserLoad(fan)).To(Succeed())

		bus, err := b.Build(nodes, []int{0})
		Expect(err).NotTo(HaveOccurred())
		Expect(bus.Admittance().At(0, 0)).To(BeNumerically("~", 1.0/60+1.0/120, 1e-12))

		Expect(bus.ConfirmSolutionAcceptable(0, 1)).To(Equal(gunns.Delay))
		Expect(bus.ConfirmSolutionAcceptable(1, 2)).To(Equal(gunns.Confirm))

		bus.ComputeFlows(0.1)
		Expect(bus.Voltage()).To(Equal(120.0))
		Expect(bus.LoadPower()).To(BeNumerically("~", 360, 1e-9))
		Expect(bus.Current()).To(BeNumerically("~", 3, 1e-9))
	})

	It("rejects once when a fuse blows", func() {
		b := elect.NewPowerBusBuilder(elect.PowerBusConfig{Name: "main_bus"})
		heater, _ := loads.NewResistiveLoad(loads.Config{Name: "heater", Fuse: loads.Fuse{CurrentLimit: 1}}, 10)
		Expect(b.AddUserLoad(heater)).To(Succeed())
		bus, err := b.Build(nodes, []int{0})
		Expect(err).NotTo(HaveOccurred())

		Expect(bus.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Reject))
		Expect(bus.Admittance().At(0, 0)).To(Equal(gunns.ConductanceFloor))
		Expect(bus.ConfirmSolutionAcceptable(1, 2)).To(Equal(gunns.Confirm))
	})

	It("requires loads and a non-ground port", func() {
		_, err := elect.NewPowerBusBuilder(elect.PowerBusConfig{Name: "empty"}).Build(nodes, []int{0})
		Expect(err).To(MatchError(gunns.ErrInitialization))

		b := elect.NewPowerBusBuilder(elect.PowerBusConfig{Name: "grounded"})
		lamp, _ := loads.NewResistiveLoad(loads.Config{Name: "lamp"}, 60)
		Expect(b.AddUserLoad(lamp)).To(Succeed())
		_, err = b.Build(nodes, []int{nodes.Ground()})
		Expect(err).To(MatchError(gunns.ErrInitialization))
	})
})

var _ = Describe("PotentialSource", func() {
	It("stamps a Norton equivalent and drops to zero when failed", func() {
		nodes := gunns.NewNodeList("bus")
		src, err := elect.NewPotentialSource(elect.PotentialSourceConfig{
			Name: "feed", Conductance: 10, Potential: 120,
		}, nodes, []int{nodes.Ground(), 0})
		Expect(err).NotTo(HaveOccurred())

		adm := src.Admittance()
		Expect(adm.At(1, 1)).To(Equal(10.0))
		Expect(adm.At(0, 1)).To(Equal(-10.0))
		Expect(adm.Source[1]).To(Equal(1200.0))

		nodes.SetPotential(0, 118)
		src.ComputeFlows(0.1)
		Expect(src.Flux()).To(BeNumerically("~", 20, 1e-9))

		Expect(src.ApplyFault(gunns.Fault{Kind: gunns.SourceFail, Active: true})).To(Succeed())
		Expect(src.Potential()).To(BeZero())
		Expect(src.Admittance().Source[1]).To(BeZero())
	})
})

var _ = Describe("Sensor", func() {
	It("applies bias and drift until cleared", func() {
		var s elect.Sensor
		s.SetBias(true, 2)
		s.SetDrift(true, 1)
		s.Step(0.5)
		Expect(s.Sense(10)).To(BeNumerically("~", 12.5, 1e-12))

		s.SetDrift(false, 0)
		s.SetBias(false, 0)
		Expect(s.Sense(10)).To(Equal(10.0))
	})
})
