package interpreter

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wazeroc/wazeroc/internal/wasm"
)

// defaultStackPoolSizePerClass bounds how many drained stackSets a single size class retains. Past this, a
// returned stackSet is simply dropped for the garbage collector rather than evicted-and-reused, since the LRU
// itself already caps entries per key at one — this is the fan-out within one key.
const defaultStackPoolSizePerClass = 2

// stackSet is one invocation's worth of scratch storage: the value stack and the frame stack, sized for reuse by
// any call whose outermost function needs a window no larger than cap(stack).
type stackSet struct {
	stack  []wasm.UntypedVal
	frames []callFrame
}

// stackPool hands out drained stackSets bucketed by size class (the outermost function's local+temp count,
// rounded up to a power of two), so a program making many short-lived calls of similar shape avoids reallocating
// its value stack and frame stack on every invocation. Backed by an LRU so a store that only ever sees a handful of
// distinct call shapes doesn't grow its pool unboundedly.
type stackPool struct {
	classes *lru.Cache[int, []*stackSet]
	perClass int
}

// newStackPool constructs a pool retaining up to maxClasses distinct size classes, perClass stackSets each.
func newStackPool(maxClasses int, perClass int) *stackPool {
	if perClass <= 0 {
		perClass = defaultStackPoolSizePerClass
	}
	c, _ := lru.New[int, []*stackSet](maxClasses)
	return &stackPool{classes: c, perClass: perClass}
}

// sizeClass rounds window up to the next power of two, with a floor of 16 words, so nearby-sized calls share a
// bucket instead of each minting its own class.
func sizeClass(window int) int {
	c := 16
	for c < window {
		c <<= 1
	}
	return c
}

// get returns a stackSet whose stack/frames slices have at least window/depth capacity, reusing a pooled one from
// the matching size class when available.
func (p *stackPool) get(window int) *stackSet {
	class := sizeClass(window)
	if sets, ok := p.classes.Get(class); ok && len(sets) > 0 {
		s := sets[len(sets)-1]
		p.classes.Add(class, sets[:len(sets)-1])
		s.stack = s.stack[:0]
		s.frames = s.frames[:0]
		return s
	}
	return &stackSet{stack: make([]wasm.UntypedVal, 0, class), frames: make([]callFrame, 0, 4)}
}

// put returns s to the pool, bucketed by the capacity class of its stack slice. Dropped silently once a class is
// already at perClass capacity.
func (p *stackPool) put(s *stackSet) {
	class := sizeClass(cap(s.stack))
	sets, _ := p.classes.Get(class)
	if len(sets) >= p.perClass {
		return
	}
	p.classes.Add(class, append(sets, s))
}
