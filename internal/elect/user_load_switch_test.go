package elect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
	"github.com/san-kum/powerlink/internal/trip"
)

var _ = Describe("UserLoadSwitch", func() {
	var nodes *gunns.NodeList

	build := func(name string, priority int, fuse float64, ports []int) *elect.UserLoadSwitch {
		b := elect.NewUserLoadSwitchBuilder(elect.UserLoadSwitchConfig{
			Name: name,
			Switch: elect.SwitchConfig{
				Resistance: 0.01,
				Trips:      trip.Limits{PosOvercurrent: 10, Priority: priority},
			},
			InitiallyClosed: true,
		})
		load, err := loads.NewResistiveLoad(loads.Config{
			Name: name + "_load",
			Fuse: loads.Fuse{CurrentLimit: fuse},
		}, 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.AddUserLoad(load)).To(Succeed())
		s, err := b.Build(nodes, ports)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		nodes = gunns.NewNodeList("bus", "out_a", "out_b")
		nodes.SetPotential(0, 120)
		nodes.SetPotential(1, 119.95)
		nodes.SetPotential(2, 119.5)
	})

	It("stamps the closed switch in series with its loads", func() {
		s := build("rpc", 1, 0, []int{0, 1})
		adm := s.Admittance()
		Expect(adm.At(0, 0)).To(BeNumerically("~", 100, 1e-9))
		Expect(adm.At(0, 1)).To(BeNumerically("~", -100, 1e-9))
		Expect(adm.At(1, 1)).To(BeNumerically("~", 100+1.0/12.0, 1e-9))
		Expect(s.Switch().IsClosed()).To(BeTrue())
	})

	It("replaces the circuit with a stiff source under loads override", func() {
		s := build("rpc", 1, 0, []int{0, 1})
		Expect(s.ApplyFault(gunns.Fault{Kind: gunns.LoadsOverride, Value: 122.0, Active: true})).To(Succeed())
		s.MinorStep(0.1, 2)

		adm := s.Admittance()
		Expect(s.IsLoadsOverrideActive()).To(BeTrue())
		Expect(adm.At(0, 0)).To(BeZero())
		Expect(adm.At(0, 1)).To(BeZero())
		Expect(adm.At(1, 1)).To(Equal(elect.DefaultLoadsOverrideConductance))
		Expect(adm.Source[1]).To(Equal(122.0 * 1.0e8))
	})

	It("confirms a healthy solution repeatedly", func() {
		s := build("rpc", 1, 0, []int{0, 1})
		Expect(s.ConfirmSolutionAcceptable(0, 1)).To(Equal(gunns.Delay))
		for k := 1; k <= 3; k++ {
			Expect(s.ConfirmSolutionAcceptable(k, k)).To(Equal(gunns.Confirm))
		}
		Expect(s.Current()).To(BeNumerically("~", 5, 1e-9))
	})

	It("staggers overcurrent trips by priority", func() {
		first := build("rpc_1", 1, 0, []int{0, 2})
		second := build("rpc_2", 2, 0, []int{0, 2})

		Expect(first.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Reject))
		Expect(second.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Delay))
		Expect(first.Switch().IsTripped()).To(BeTrue())
		Expect(first.Switch().IsClosed()).To(BeFalse())
		Expect(first.Switch().TripCauses()).To(ConsistOf("pos_overcurrent"))
		Expect(second.Switch().TripPhase()).To(Equal(trip.WaitingToTrip))

		Expect(second.ConfirmSolutionAcceptable(2, 2)).To(Equal(gunns.Reject))
		Expect(second.Switch().IsTripped()).To(BeTrue())
		Expect(first.Admittance().At(0, 0)).To(BeZero())
	})

	It("blows fuses before the switch trips are evaluated", func() {
		s := build("rpc", 1, 5, []int{0, 2})

		Expect(s.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Reject))
		Expect(s.UserLoads().Loads()[0].IsFuseBlown()).To(BeTrue())
		Expect(s.Switch().IsTripped()).To(BeFalse())

		Expect(s.ConfirmSolutionAcceptable(1, 2)).To(Equal(gunns.Reject))
		Expect(s.Switch().IsTripped()).To(BeTrue())
	})

	It("stays open until a reset is applied at a major step", func() {
		s := build("rpc", 1, 0, []int{0, 2})
		Expect(s.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Reject))

		s.Step(0.1)
		Expect(s.Switch().IsClosed()).To(BeFalse())

		s.Switch().ResetTrips()
		Expect(s.Switch().IsTripped()).To(BeTrue())
		s.Step(0.1)
		Expect(s.Switch().IsTripped()).To(BeFalse())
		Expect(s.Switch().IsClosed()).To(BeTrue())
	})

	It("trips on a biased current sensor", func() {
		s := build("rpc", 1, 0, []int{0, 1})
		Expect(s.ApplyFault(gunns.Fault{Kind: gunns.CurrentSensorBias, Value: 10, Active: true})).To(Succeed())
		Expect(s.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Reject))
		Expect(s.Switch().CurrentSensor.Sensed()).To(BeNumerically("~", 15, 1e-9))
	})

	It("opens on a fail-open fault and ignores trips while open", func() {
		s := build("rpc", 1, 0, []int{0, 2})
		Expect(s.ApplyFault(gunns.Fault{Kind: gunns.SwitchFailOpen, Active: true})).To(Succeed())
		s.Step(0.1)
		Expect(s.Switch().IsClosed()).To(BeFalse())
		Expect(s.Admittance().At(0, 1)).To(BeZero())
		Expect(s.ConfirmSolutionAcceptable(1, 1)).To(Equal(gunns.Confirm))
		Expect(s.Switch().IsTripped()).To(BeFalse())
	})

	It("refuses faults it does not model", func() {
		s := build("rpc", 1, 0, []int{0, 1})
		Expect(s.ApplyFault(gunns.Fault{Kind: gunns.PowerInputFail, Active: true})).
			To(MatchError(gunns.ErrUnsupportedFault))
	})

	Describe("builder", func() {
		cfg := elect.UserLoadSwitchConfig{
			Name:   "rpc",
			Switch: elect.SwitchConfig{Resistance: 0.01, Trips: trip.Limits{Priority: 1}},
		}

		It("requires at least one user load", func() {
			_, err := elect.NewUserLoadSwitchBuilder(cfg).Build(nodes, []int{0, 1})
			Expect(err).To(MatchError(gunns.ErrInitialization))
		})

		It("refuses loads once built", func() {
			b := elect.NewUserLoadSwitchBuilder(cfg)
			load, _ := loads.NewResistiveLoad(loads.Config{Name: "lamp"}, 10)
			Expect(b.AddUserLoad(load)).To(Succeed())
			_, err := b.Build(nodes, []int{0, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(b.AddUserLoad(load)).To(MatchError(gunns.ErrInitialization))
		})

		DescribeTable("rejects bad wiring",
			func(ports []int, mutate func(*elect.UserLoadSwitchConfig)) {
				c := cfg
				mutate(&c)
				b := elect.NewUserLoadSwitchBuilder(c)
				load, _ := loads.NewResistiveLoad(loads.Config{Name: "lamp"}, 10)
				Expect(b.AddUserLoad(load)).To(Succeed())
				s, err := b.Build(nodes, ports)
				Expect(err).To(MatchError(gunns.ErrInitialization))
				Expect(s).To(BeNil())
			},
			Entry("shared node", []int{1, 1}, func(*elect.UserLoadSwitchConfig) {}),
			Entry("grounded output", []int{0, 3}, func(*elect.UserLoadSwitchConfig) {}),
			Entry("one port", []int{0}, func(*elect.UserLoadSwitchConfig) {}),
			Entry("zero resistance", []int{0, 1}, func(c *elect.UserLoadSwitchConfig) { c.Switch.Resistance = 0 }),
			Entry("zero priority", []int{0, 1}, func(c *elect.UserLoadSwitchConfig) { c.Switch.Trips.Priority = 0 }),
		)
	})
})
