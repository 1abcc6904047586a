// Profiling:
// go build ./profile/dispatch
// go tool pprof -http=":8000" -nodefraction=0.001 ./dispatch cpu.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/oriumgames/krill"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type sumSystem struct {
	filter *krill.Filter
	ones   *krill.Pool[comp1]
	twos   *krill.Pool[comp2]
}

func (s *sumSystem) Setup(d *krill.Dispatcher) {
	w := d.World("bench")
	s.ones = krill.PoolOf[comp1](w)
	s.twos = krill.PoolOf[comp2](w)
	s.filter = w.Filter(krill.ID[comp1](w)).Inc(krill.ID[comp2](w)).End()
}

func (s *sumSystem) Run(dt float64, worker int) {
	for _, e := range s.filter.Entities() {
		c1 := s.ones.Get(e)
		c2 := s.twos.Read(e)
		c1.V += c2.V
		c1.W += c2.W
	}
}

func (s *sumSystem) Reads() []krill.Access {
	return []krill.Access{krill.AccessTo("bench", krill.Comp[comp2]())}
}

func (s *sumSystem) Writes() []krill.Access {
	return []krill.Access{krill.AccessTo("bench", krill.Comp[comp1]())}
}

func main() {
	frames := 10000
	entities := 10000

	w := krill.NewWorldWithCapacity("bench", entities)
	ones := krill.Register[comp1](w)
	twos := krill.Register[comp2](w)
	for i := 0; i < entities; i++ {
		e := w.NewEntity()
		ones.Add(e)
		twos.Add(e).V = int64(i)
	}

	b := krill.NewBuilder().AddWorld(w, "bench")
	krill.Add[sumSystem](b)
	d := b.Finish(4)
	d.Init()

	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	for i := 0; i < frames; i++ {
		d.Run(0.016)
	}
	p.Stop()
	d.Dispose()
}
