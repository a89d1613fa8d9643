package elect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
)

var _ = Describe("Ips", func() {
	const leak = 1e-8

	var (
		nodes *gunns.NodeList
		cfg   elect.IpsConfig
		ips   *elect.Ips
	)

	setInputs := func(a, b float64) {
		nodes.SetPotential(0, a)
		nodes.SetPotential(1, b)
	}

	BeforeEach(func() {
		nodes = gunns.NewNodeList("feed_a", "feed_b")
		cfg = elect.IpsConfig{
			Name: "ips",
			Selector: elect.SelectorConfig{
				NumSources:             2,
				UnderVoltageLimit:      100,
				PotentialOnTolerance:   0.1,
				MaxSwitchesPerSolution: 3,
			},
			UnselectedInputConductance: leak,
			PowerConsumedOn:            120,
			ThermalFraction:            0.5,
		}
	})

	Context("built with two healthy inputs", func() {
		BeforeEach(func() {
			var err error
			ips, err = elect.NewIpsBuilder(cfg).Build(nodes, []int{0, 1})
			Expect(err).NotTo(HaveOccurred())
			setInputs(120, 118)
			ips.Step(0.1)
		})

		It("draws its power from the selected input", func() {
			Expect(ips.ActiveSource()).To(Equal(0))
			Expect(ips.IsPowerSupplyOn()).To(BeTrue())
			Expect(ips.SupplyVoltage()).To(Equal(120.0))
			adm := ips.Admittance()
			Expect(adm.At(0, 0)).To(BeNumerically("~", 1.0/120.0, 1e-12))
			Expect(adm.At(1, 1)).To(Equal(leak))
			Expect(adm.At(0, 1)).To(BeZero())
		})

		It("votes DELAY before convergence and CONFIRM on a stable solution", func() {
			Expect(ips.ConfirmSolutionAcceptable(0, 1)).To(Equal(gunns.Delay))
			Expect(ips.ConfirmSolutionAcceptable(1, 2)).To(Equal(gunns.Confirm))
			Expect(ips.ConfirmSolutionAcceptable(2, 3)).To(Equal(gunns.Confirm))
		})

		It("rejects a solution that moves the selection, then confirms it", func() {
			setInputs(110, 121)
			Expect(ips.ConfirmSolutionAcceptable(2, 2)).To(Equal(gunns.Reject))
			Expect(ips.ActiveSource()).To(Equal(1))
			Expect(ips.ConfirmSolutionAcceptable(2, 3)).To(Equal(gunns.Confirm))
		})

		It("computes flows from the committed conductances", func() {
			ips.ComputeFlows(0.1)
			Expect(ips.InputCurrent(0)).To(BeNumerically("~", 1.0, 1e-9))
			Expect(ips.PowerDrawn()).To(BeNumerically("~", 120.0, 1e-9))
			Expect(ips.HeatDissipated()).To(BeNumerically("~", 60.0, 1e-9))
		})

		It("leaks on every input once all inputs fail", func() {
			Expect(ips.ApplyFault(gunns.Fault{Kind: gunns.AllPowerInputsFail, Active: true})).To(Succeed())
			ips.Step(0.1)
			Expect(ips.ActiveSource()).To(Equal(gunns.InvalidSource))
			Expect(ips.IsPowerSupplyOn()).To(BeFalse())
			Expect(ips.TotalPowerLoad()).To(BeZero())
			Expect(ips.Admittance().At(0, 0)).To(Equal(leak))
			Expect(ips.Admittance().At(1, 1)).To(Equal(leak))
		})

		It("turns off when every input dies after the reselection budget is spent", func() {
			capped := cfg
			capped.Selector.MaxSwitchesPerSolution = 1
			var err error
			ips, err = elect.NewIpsBuilder(capped).Build(nodes, []int{0, 1})
			Expect(err).NotTo(HaveOccurred())
			setInputs(120, 118)
			ips.Step(0.1)

			setInputs(120, 125)
			ips.MinorStep(0.1, 2)
			Expect(ips.ActiveSource()).To(Equal(1))
			Expect(ips.Selector().Switches()).To(Equal(1))

			setInputs(0, 0)
			ips.MinorStep(0.1, 3)
			Expect(ips.ConfirmSolutionAcceptable(1, 4)).To(Equal(gunns.Confirm))
			Expect(ips.ActiveSource()).To(Equal(gunns.InvalidSource))
			Expect(ips.IsPowerSupplyOn()).To(BeFalse())
			Expect(ips.SupplyVoltage()).To(BeZero())
			Expect(ips.Admittance().At(0, 0)).To(Equal(leak))
			Expect(ips.Admittance().At(1, 1)).To(Equal(leak))
		})

		It("moves to the other input when the active one fails", func() {
			Expect(ips.ApplyFault(gunns.Fault{Kind: gunns.PowerInputFail, Target: 0, Active: true})).To(Succeed())
			ips.Step(0.1)
			Expect(ips.ActiveSource()).To(Equal(1))
		})

		It("applies and bounds the power bias", func() {
			Expect(ips.ApplyFault(gunns.Fault{Kind: gunns.BiasPowerConsumed, Value: 30, Active: true})).To(Succeed())
			ips.Step(0.1)
			Expect(ips.TotalPowerLoad()).To(BeNumerically("~", 150, 1e-9))

			err := ips.ApplyFault(gunns.Fault{Kind: gunns.BiasPowerConsumed, Value: -500, Active: true})
			Expect(err).To(MatchError(gunns.ErrNumerical))
		})

		It("refuses faults it does not model", func() {
			Expect(ips.ApplyFault(gunns.Fault{Kind: gunns.SwitchFailOpen, Active: true})).
				To(MatchError(gunns.ErrUnsupportedFault))
			Expect(ips.ApplyFault(gunns.Fault{Kind: gunns.PowerInputFail, Target: 7, Active: true})).
				To(MatchError(gunns.ErrOutOfBounds))
		})
	})

	It("adds user load power to the supply and keeps the setpoint as output power", func() {
		b := elect.NewIpsBuilder(cfg)
		load, err := loads.NewConstantPowerLoad(loads.Config{Name: "heater"}, 60)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.AddUserLoad(load)).To(Succeed())

		setInputs(120, 0)
		ips, err = b.Build(nodes, []int{0, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(ips.TotalPowerLoad()).To(BeNumerically("~", 180, 1e-9))
		Expect(ips.OutputPower()).To(Equal(120.0))
	})

	Describe("builder", func() {
		It("refuses loads once built", func() {
			b := elect.NewIpsBuilder(cfg)
			_, err := b.Build(nodes, []int{0, 1})
			Expect(err).NotTo(HaveOccurred())

			load, _ := loads.NewResistiveLoad(loads.Config{Name: "late"}, 10)
			Expect(b.AddUserLoad(load)).To(MatchError(gunns.ErrInitialization))
			_, err = b.Build(nodes, []int{0, 1})
			Expect(err).To(MatchError(gunns.ErrInitialization))
		})

		DescribeTable("rejects bad configuration",
			func(mutate func(*elect.IpsConfig), ports []int) {
				mutate(&cfg)
				ips, err := elect.NewIpsBuilder(cfg).Build(nodes, ports)
				Expect(err).To(MatchError(gunns.ErrInitialization))
				Expect(ips).To(BeNil())
			},
			Entry("zero leakage", func(c *elect.IpsConfig) { c.UnselectedInputConductance = 0 }, []int{0, 1}),
			Entry("port count", func(c *elect.IpsConfig) {}, []int{0}),
			Entry("ground port", func(c *elect.IpsConfig) {}, []int{0, 2}),
			Entry("duplicate port", func(c *elect.IpsConfig) {}, []int{1, 1}),
			Entry("thermal fraction", func(c *elect.IpsConfig) { c.ThermalFraction = 2 }, []int{0, 1}),
		)
	})
})
