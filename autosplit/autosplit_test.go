package autosplit

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"loadsplit/process"
	"loadsplit/process_blob"
	"loadsplit/timer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

const gameName = "PostMouse-Win64-Shipping.exe"

var (
	loadStatePath = []process.ProcessMemorySize{0x0, 0x180, 0x38, 0x0, 0x30, 0x250, 0x350}
	worldBytes    = []byte{0x80, 0x7C, 0x24, 0x00, 0x00, 0x90, 0x90, 0x48, 0x8B, 0x3D, 0x24, 0x00, 0x00, 0x00, 0x48}
)

// game is a synthetic target: a module holding the world signature at 0x100
// whose displacement resolves to base+0x132, and one heap page per hop of the
// load state path.
type game struct {
	img      *process_blob.ProcessImage
	base     process.ProcessMemoryAddress
	heap     uint64
	terminal process.ProcessMemoryAddress
}

func newGame(pid process.ProcessID, base process.ProcessMemoryAddress, heap uint64) *game {
	g := &game{img: process_blob.NewProcessImage(pid, gameName), base: base, heap: heap}

	module := make([]byte, 0x1000)
	copy(module[0x100:], worldBytes)
	binary.LittleEndian.PutUint64(module[0x132:], heap)
	Expect(g.img.AddRegion(base, module, "r-xp")).To(Succeed())
	g.img.SetMainModule(base, 0x1000)

	for i := 0; i < len(loadStatePath)-1; i++ {
		page := make([]byte, 0x1000)
		next := heap + uint64(i+1)*0x1000
		if i+1 < len(loadStatePath)-1 {
			binary.LittleEndian.PutUint64(page[loadStatePath[i+1]:], next)
		}
		Expect(g.img.AddRegion(process.ProcessMemoryAddress(heap+uint64(i)*0x1000), page, "rw-p")).To(Succeed())
	}
	// hops 1..5 live in pages 0..4; the terminal byte lives in page 5
	g.terminal = process.ProcessMemoryAddress(heap + uint64(len(loadStatePath)-2)*0x1000 + uint64(loadStatePath[len(loadStatePath)-1]))
	return g
}

func (g *game) setLoadState(v uint8) {
	Expect(g.img.WriteMemory(g.terminal, []byte{v})).To(Succeed())
}

func (g *game) breakChain() {
	Expect(g.img.WriteMemory(g.base+0x132, make([]byte, 8))).To(Succeed())
}

func (g *game) repairChain() {
	Expect(g.img.WriteMemory(g.base+0x132, binary.LittleEndian.AppendUint64(nil, g.heap))).To(Succeed())
}

var _ = Describe("Autosplitter", func() {
	var (
		mockCtrl *gomock.Controller
		tmr      *MockTimer
		running  map[string]process.Process
		attaches []string
		hooks    Hooks
		as       *Autosplitter
		g        *game
	)

	newAutosplitter := func(names ...string) *Autosplitter {
		attacher := process.AttacherFunc(func(name string) (process.Process, error) {
			attaches = append(attaches, name)
			if p, ok := running[name]; ok {
				return p, nil
			}
			return nil, errors.New("not running")
		})
		return New(attacher, tmr, Config{
			ProcessNames:  names,
			LoadStatePath: loadStatePath,
			Hooks:         hooks,
		})
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tmr = NewMockTimer(mockCtrl)
		running = map[string]process.Process{}
		attaches = nil
		hooks = Hooks{}
		g = newGame(100, 0x140000000, 0x10000)
		g.setLoadState(1)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("before the game starts", func() {
		It("should keep retrying attach without touching the timer", func() {
			as = newAutosplitter(gameName)
			for i := 0; i < 5; i++ {
				as.Tick()
			}
			Expect(as.State()).To(Equal(Disconnected))
			Expect(attaches).To(HaveLen(5))
		})

		It("should try process names in priority order", func() {
			other := newGame(200, 0x150000000, 0x30000)
			running["b.exe"] = other.img
			running["a.exe"] = g.img
			tmr.EXPECT().State().Return(timer.NotRunning, nil)

			as = newAutosplitter("a.exe", "b.exe")
			as.Tick()

			Expect(attaches).To(Equal([]string{"a.exe"}))
			addr, ok := as.Resolved()
			Expect(ok).To(BeTrue())
			Expect(addr).To(Equal(g.base + 0x132))
		})
	})

	Context("when the game is running", func() {
		BeforeEach(func() {
			running[gameName] = g.img
			as = newAutosplitter(gameName)
		})

		It("should attach, resolve and poll within one tick", func() {
			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().ResumeGameTime().Return(nil)

			as.Tick()

			Expect(as.State()).To(Equal(Monitoring))
			addr, ok := as.Resolved()
			Expect(ok).To(BeTrue())
			Expect(addr).To(Equal(process.ProcessMemoryAddress(0x140000132)))
		})

		It("should pause game time while loading", func() {
			g.setLoadState(0)
			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().PauseGameTime().Return(nil)

			as.Tick()
		})

		It("should also act while the timer is paused", func() {
			g.setLoadState(0)
			tmr.EXPECT().State().Return(timer.Paused, nil)
			tmr.EXPECT().PauseGameTime().Return(nil)

			as.Tick()
		})

		It("should not act while the timer is not running", func() {
			g.setLoadState(0)
			tmr.EXPECT().State().Return(timer.NotRunning, nil).Times(3)

			for i := 0; i < 3; i++ {
				as.Tick()
			}
		})

		It("should not act after the run ended", func() {
			tmr.EXPECT().State().Return(timer.Ended, nil)
			as.Tick()
		})

		It("should repeat the same single request on identical ticks", func() {
			g.setLoadState(0)
			tmr.EXPECT().State().Return(timer.Running, nil).Times(4)
			tmr.EXPECT().PauseGameTime().Return(nil).Times(4)

			for i := 0; i < 4; i++ {
				as.Tick()
			}
		})

		It("should follow load state transitions", func() {
			tmr.EXPECT().State().Return(timer.Running, nil).Times(3)
			gomock.InOrder(
				tmr.EXPECT().ResumeGameTime().Return(nil),
				tmr.EXPECT().PauseGameTime().Return(nil),
				tmr.EXPECT().ResumeGameTime().Return(nil),
			)

			as.Tick()
			g.setLoadState(0)
			as.Tick()
			g.setLoadState(3)
			as.Tick()
		})

		It("should keep the last sample when the chain is unreadable", func() {
			g.setLoadState(0)
			tmr.EXPECT().State().Return(timer.Running, nil).Times(3)
			tmr.EXPECT().PauseGameTime().Return(nil).Times(3)

			as.Tick()
			g.breakChain()
			as.Tick()
			as.Tick()

			Expect(as.State()).To(Equal(Monitoring))
		})

		It("should stay silent until the first successful read", func() {
			g.breakChain()
			as.Tick()
			as.Tick()
			Expect(as.State()).To(Equal(Monitoring))

			g.repairChain()
			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().ResumeGameTime().Return(nil)
			as.Tick()
		})

		It("should skip the tick when the timer cannot be queried", func() {
			tmr.EXPECT().State().Return(timer.NotRunning, errors.New("connection refused")).Times(2)
			as.Tick()
			as.Tick()
			Expect(as.State()).To(Equal(Monitoring))
		})

		It("should keep going when a command fails", func() {
			g.setLoadState(0)
			tmr.EXPECT().State().Return(timer.Running, nil).Times(2)
			tmr.EXPECT().PauseGameTime().Return(errors.New("broken pipe"))
			tmr.EXPECT().PauseGameTime().Return(nil)

			as.Tick()
			as.Tick()
		})
	})

	Context("when the process goes away", func() {
		BeforeEach(func() {
			running[gameName] = g.img
			as = newAutosplitter(gameName)
			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().ResumeGameTime().Return(nil)
			as.Tick()
			Expect(as.State()).To(Equal(Monitoring))
		})

		It("should pause game time exactly once and stop reading", func() {
			g.img.SetOpen(false)
			delete(running, gameName)
			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().PauseGameTime().Return(nil).Times(1)

			as.Tick()
			Expect(as.State()).To(Equal(Disconnected))
			_, ok := as.Resolved()
			Expect(ok).To(BeFalse())

			reads := g.img.Reads()
			for i := 0; i < 5; i++ {
				as.Tick()
			}
			Expect(g.img.Reads()).To(Equal(reads))
			Expect(as.State()).To(Equal(Disconnected))
		})

		It("should not pause when the timer is not running", func() {
			g.img.SetOpen(false)
			delete(running, gameName)
			tmr.EXPECT().State().Return(timer.NotRunning, nil)

			as.Tick()
			Expect(as.State()).To(Equal(Disconnected))
		})

		It("should resolve again from scratch for a restarted game", func() {
			g.img.SetOpen(false)
			restarted := newGame(101, 0x7FF600000000, 0x20000)
			restarted.setLoadState(0)
			running[gameName] = restarted.img

			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().PauseGameTime().Return(nil)
			as.Tick()
			Expect(as.State()).To(Equal(Disconnected))

			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().PauseGameTime().Return(nil)
			as.Tick()

			addr, ok := as.Resolved()
			Expect(ok).To(BeTrue())
			Expect(addr).To(Equal(restarted.base + 0x132))
		})
	})

	Context("while the game is still initialising", func() {
		It("should wait in Connecting until the module is mapped", func() {
			late := process_blob.NewProcessImage(300, gameName)
			running[gameName] = late
			as = newAutosplitter(gameName)

			as.Tick()
			as.Tick()
			Expect(as.State()).To(Equal(Connecting))
			Expect(attaches).To(HaveLen(1), "the handle is kept while waiting")
		})

		It("should wait in Scanning while the signature is absent", func() {
			blank := process_blob.NewProcessImage(301, gameName)
			Expect(blank.AddRegion(0x140000000, make([]byte, 0x1000), "r-xp")).To(Succeed())
			blank.SetMainModule(0x140000000, 0x1000)
			running[gameName] = blank
			as = newAutosplitter(gameName)

			for i := 0; i < 10; i++ {
				as.Tick()
			}
			Expect(as.State()).To(Equal(Scanning))

			Expect(blank.WriteMemory(0x140000800, worldBytes)).To(Succeed())
			as.Tick()
			Expect(as.State()).To(Equal(Monitoring))
		})

		It("should treat a crash while scanning as process loss", func() {
			blank := process_blob.NewProcessImage(302, gameName)
			blank.SetMainModule(0x140000000, 0x1000)
			running[gameName] = blank
			as = newAutosplitter(gameName)
			as.Tick()
			Expect(as.State()).To(Equal(Scanning))

			blank.SetOpen(false)
			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().PauseGameTime().Return(nil)
			as.Tick()
			Expect(as.State()).To(Equal(Disconnected))
		})
	})

	Context("with hooks", func() {
		BeforeEach(func() {
			running[gameName] = g.img
		})

		It("should start the timer when the start hook fires", func() {
			hooks.Start = func(s Signals) bool { return !s.Loading() }
			as = newAutosplitter(gameName)

			tmr.EXPECT().State().Return(timer.NotRunning, nil)
			tmr.EXPECT().Start().Return(nil)
			as.Tick()
		})

		It("should split before updating game time", func() {
			hooks.Split = func(Signals) bool { return true }
			as = newAutosplitter(gameName)
			g.setLoadState(0)

			tmr.EXPECT().State().Return(timer.Running, nil)
			gomock.InOrder(
				tmr.EXPECT().Split().Return(nil),
				tmr.EXPECT().PauseGameTime().Return(nil),
			)
			as.Tick()
		})

		It("should only reset when the reset hook fires", func() {
			hooks.Reset = func(Signals) bool { return true }
			hooks.Split = func(Signals) bool { return true }
			as = newAutosplitter(gameName)

			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().Reset().Return(nil)
			as.Tick()
		})

		It("should forward game time from the hook", func() {
			hooks.GameTime = func(Signals) (time.Duration, bool) { return 90 * time.Second, true }
			as = newAutosplitter(gameName)

			tmr.EXPECT().State().Return(timer.Running, nil)
			tmr.EXPECT().ResumeGameTime().Return(nil)
			tmr.EXPECT().SetGameTime(90 * time.Second).Return(nil)
			as.Tick()
		})

		It("should see transitions across ticks", func() {
			var seen []bool
			hooks.Split = func(s Signals) bool {
				seen = append(seen, s.LoadState.ChangedTo(0))
				return false
			}
			as = newAutosplitter(gameName)

			tmr.EXPECT().State().Return(timer.Running, nil).Times(3)
			tmr.EXPECT().ResumeGameTime().Return(nil)
			tmr.EXPECT().PauseGameTime().Return(nil).Times(2)

			as.Tick()
			g.setLoadState(0)
			as.Tick()
			as.Tick()

			Expect(seen).To(Equal([]bool{false, true, false}))
		})
	})

	Context("when run by a ticker", func() {
		It("should tick until the context is done and release the process", func() {
			running[gameName] = g.img
			as = newAutosplitter(gameName)
			tmr.EXPECT().State().Return(timer.NotRunning, nil).MinTimes(1)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			Expect(as.Run(ctx, time.Millisecond)).To(MatchError(context.DeadlineExceeded))

			Expect(as.Close()).To(Succeed())
			Expect(as.State()).To(Equal(Disconnected))
			Expect(g.img.IsOpen()).To(BeFalse())
		})
	})
})
