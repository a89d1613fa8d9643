package elect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/gunns"
)

var _ = Describe("Selector", func() {
	var (
		sel *elect.Selector
		cfg elect.SelectorConfig
	)

	newSelector := func() *elect.Selector {
		s, err := elect.NewSelector("ips", cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		cfg = elect.SelectorConfig{
			NumSources:             2,
			UnderVoltageLimit:      100,
			PotentialOnTolerance:   0.1,
			MaxSwitchesPerSolution: 2,
		}
	})

	Context("without a backup source", func() {
		BeforeEach(func() {
			sel = newSelector()
			sel.SetVoltages([]float64{120, 119})
			sel.Update(false)
			Expect(sel.ActiveSource()).To(Equal(0))
		})

		It("holds the active source inside the tolerance band", func() {
			sel.SetVoltages([]float64{120, 120.05})
			Expect(sel.Update(true)).To(BeFalse())
			Expect(sel.ActiveSource()).To(Equal(0))
		})

		It("switches once the margin exceeds the tolerance", func() {
			sel.SetVoltages([]float64{120, 120.2})
			Expect(sel.Update(true)).To(BeTrue())
			Expect(sel.ActiveSource()).To(Equal(1))
			Expect(sel.Channels()[1].Selected).To(BeTrue())
			Expect(sel.Channels()[0].Selected).To(BeFalse())
		})

		It("skips failed channels", func() {
			Expect(sel.SetFailed(0, true)).To(Succeed())
			sel.Update(true)
			Expect(sel.ActiveSource()).To(Equal(1))
		})

		It("reports no source when every channel is invalid", func() {
			sel.SetVoltages([]float64{90, 80})
			sel.Update(true)
			Expect(sel.ActiveSource()).To(Equal(gunns.InvalidSource))
		})

		It("rejects out-of-range fault targets", func() {
			Expect(sel.SetFailed(5, true)).To(MatchError(gunns.ErrOutOfBounds))
		})

		It("bounds reselections within one convergence cycle", func() {
			flips := 0
			for k := 0; k < 10; k++ {
				if k%2 == 0 {
					sel.SetVoltages([]float64{120, 125})
				} else {
					sel.SetVoltages([]float64{125, 120})
				}
				if sel.Update(true) {
					flips++
				}
			}
			Expect(flips).To(BeNumerically("<=", cfg.MaxSwitchesPerSolution))
			Expect(sel.Switches()).To(Equal(cfg.MaxSwitchesPerSolution))
			Expect(sel.Capped()).To(BeTrue())

			sel.BeginCycle()
			Expect(sel.Switches()).To(BeZero())
			Expect(sel.Capped()).To(BeFalse())
		})

		It("drops to no source when every channel dies after the budget is spent", func() {
			for k := 0; k < cfg.MaxSwitchesPerSolution; k++ {
				if k%2 == 0 {
					sel.SetVoltages([]float64{120, 125})
				} else {
					sel.SetVoltages([]float64{125, 120})
				}
				Expect(sel.Update(true)).To(BeTrue())
			}
			Expect(sel.Switches()).To(Equal(cfg.MaxSwitchesPerSolution))

			sel.SetVoltages([]float64{0, 0})
			Expect(sel.Update(true)).To(BeTrue())
			Expect(sel.ActiveSource()).To(Equal(gunns.InvalidSource))
			Expect(sel.Capped()).To(BeFalse())
		})

		It("leaves a dead active channel even when the budget is spent", func() {
			sel.SetVoltages([]float64{120, 125})
			Expect(sel.Update(true)).To(BeTrue())
			sel.SetVoltages([]float64{125, 120})
			Expect(sel.Update(true)).To(BeTrue())
			Expect(sel.ActiveSource()).To(Equal(0))

			sel.SetVoltages([]float64{50, 120})
			Expect(sel.Update(true)).To(BeTrue())
			Expect(sel.ActiveSource()).To(Equal(1))
			Expect(sel.Switches()).To(Equal(cfg.MaxSwitchesPerSolution))
		})

		It("does not spend the budget on uncounted updates", func() {
			sel.SetVoltages([]float64{120, 125})
			Expect(sel.Update(false)).To(BeTrue())
			Expect(sel.Switches()).To(BeZero())
		})
	})

	Describe("SelectWithoutBackup", func() {
		It("breaks ties toward the lowest index", func() {
			sel = newSelector()
			got := sel.SelectWithoutBackup([]float64{120, 120}, []bool{false, false}, 100, 0.1)
			Expect(got).To(Equal(0))
		})

		It("requires voltage strictly above the under-voltage limit", func() {
			sel = newSelector()
			got := sel.SelectWithoutBackup([]float64{100, 100}, []bool{false, false}, 100, 0.1)
			Expect(got).To(Equal(gunns.InvalidSource))
		})

		It("selects nothing when the failed flags do not match the voltages", func() {
			sel = newSelector()
			Expect(sel.SelectWithoutBackup([]float64{120, 121}, []bool{false}, 100, 0.1)).
				To(Equal(gunns.InvalidSource))
			Expect(sel.SelectWithBackup([]float64{120, 121}, nil, 1, 100, 130, 5, 0.1)).
				To(Equal(gunns.InvalidSource))
		})
	})

	Context("with a backup source", func() {
		BeforeEach(func() {
			cfg.NumSources = 3
			cfg.BackupEnabled = true
			cfg.BackupSourceIndex = 2
			cfg.BackupVoltageMin = 100
			cfg.BackupVoltageMax = 130
			cfg.BackupVoltageThreshold = 5
			sel = newSelector()
			sel.SetVoltages([]float64{120, 110, 118})
			sel.Update(false)
			Expect(sel.ActiveSource()).To(Equal(0))
		})

		It("retains the current source while the backup is close", func() {
			sel.SetVoltages([]float64{120, 124, 118})
			sel.Update(true)
			Expect(sel.ActiveSource()).To(Equal(0))
		})

		It("falls back to the greatest voltage when the backup is far", func() {
			sel.SetVoltages([]float64{120, 124, 110})
			sel.Update(true)
			Expect(sel.ActiveSource()).To(Equal(1))
		})

		It("uses the backup when the primaries are lost", func() {
			sel.SetVoltages([]float64{0, 0, 118})
			sel.Update(true)
			Expect(sel.ActiveSource()).To(Equal(2))
		})

		It("ignores a backup outside its voltage range", func() {
			sel.SetVoltages([]float64{0, 0, 140})
			sel.Update(true)
			Expect(sel.ActiveSource()).To(Equal(gunns.InvalidSource))
		})
	})

	It("rejects invalid configuration", func() {
		cfg.NumSources = 0
		_, err := elect.NewSelector("ips", cfg, nil)
		Expect(err).To(MatchError(gunns.ErrInitialization))

		cfg.NumSources = 2
		cfg.BackupEnabled = true
		cfg.BackupSourceIndex = 4
		_, err = elect.NewSelector("ips", cfg, nil)
		Expect(err).To(MatchError(gunns.ErrInitialization))
	})
})
