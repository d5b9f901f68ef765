// Package chain holds the spring-block chain and its force law.
//
// A [Chain] is an ordered, open path of [Block] records stored in one
// contiguous slice. Neighbor links are positional indices into that slice:
// the head has no previous block and the tail has no next block.
//
// Each block is pulled by three things:
//
//   - the spring to its neighbor (stiffness KC, rest length BlockWidth),
//   - the spring to its private driver anchor E (stiffness KP),
//   - stick-slip friction: a static threshold while at rest, a smaller
//     dynamic value once sliding.
//
// The stick-slip branch stores elastic energy until a block breaks away,
// which is what makes the chain release stress in bursts.
package chain

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/quakesim/internal/config"
)

const none = -1

var (
	// ErrInvalidParams indicates a chain that cannot be built.
	ErrInvalidParams = errors.New("chain: invalid parameters")

	// ErrBrokenLinks indicates the neighbor links no longer form a simple path.
	ErrBrokenLinks = errors.New("chain: broken neighbor links")
)

// Params are the chain-wide constants.
type Params struct {
	Blocks     int
	Kp         float64
	Kc         float64
	FrictionD  float64
	Ve         float64
	VEpsilon   float64
	BlockWidth float64
}

func ParamsFrom(cfg *config.Config) Params {
	return Params{
		Blocks:     cfg.Blocks,
		Kp:         cfg.Kp,
		Kc:         cfg.Kc,
		FrictionD:  cfg.FrictionD,
		Ve:         cfg.Ve,
		VEpsilon:   cfg.VEpsilon,
		BlockWidth: cfg.BlockWidth,
	}
}

type Block struct {
	Index    int
	X        float64
	V        float64
	VPrev    float64
	A        float64
	E        float64
	KP       float64
	KC       float64
	Friction float64

	prev, next int
}

// Moving reports whether the block is above the stick velocity.
func (b *Block) Moving(vEpsilon float64) bool {
	return math.Abs(b.V) > vEpsilon
}

// Sampler supplies the static friction of each new block.
type Sampler interface {
	Sample(base float64) float64
}

type Chain struct {
	params Params
	blocks []Block
	maxX   float64
}

// Build lays out p.Blocks blocks at rest with a pitch of 3*BlockWidth,
// each anchor 2*BlockWidth ahead of its block. Friction is drawn from s
// in index order.
func Build(p Params, s Sampler) (*Chain, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	blocks := make([]Block, p.Blocks)
	for i := range blocks {
		blocks[i] = Block{
			X:        3 * p.BlockWidth * float64(i),
			E:        p.BlockWidth * float64(3*i+2),
			KP:       p.Kp,
			KC:       p.Kc,
			Friction: s.Sample(p.FrictionD),
		}
	}
	c := &Chain{params: p, blocks: blocks}
	c.link()
	c.maxX = blocks[len(blocks)-1].X
	return c, nil
}

// New builds a chain from explicit block records. Indices and links are
// reassigned from slice order; MaxX starts at the largest X.
func New(p Params, blocks []Block) (*Chain, error) {
	p.Blocks = len(blocks)
	if err := p.validate(); err != nil {
		return nil, err
	}
	c := &Chain{params: p, blocks: append([]Block(nil), blocks...)}
	c.link()
	c.maxX = math.Inf(-1)
	for i := range c.blocks {
		c.maxX = math.Max(c.maxX, c.blocks[i].X)
	}
	return c, nil
}

func (p Params) validate() error {
	if p.Blocks <= 0 {
		return fmt.Errorf("%w: need at least one block, got %d", ErrInvalidParams, p.Blocks)
	}
	if p.BlockWidth <= 0 {
		return fmt.Errorf("%w: block width must be positive, got %g", ErrInvalidParams, p.BlockWidth)
	}
	return nil
}

func (c *Chain) link() {
	for i := range c.blocks {
		b := &c.blocks[i]
		b.Index = i + 1
		b.prev, b.next = i-1, i+1
		if i == 0 {
			b.prev = none
		}
		if i == len(c.blocks)-1 {
			b.next = none
		}
	}
}

func (c *Chain) Params() Params { return c.params }

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.blocks)
}

// Block returns the block at 0-based position i.
func (c *Chain) Block(i int) *Block { return &c.blocks[i] }

// Blocks exposes the blocks in index order. Callers outside the simulation
// core must treat the slice as read-only.
func (c *Chain) Blocks() []Block { return c.blocks }

// Prev returns the left neighbor of b, or nil at the head.
func (c *Chain) Prev(b *Block) *Block {
	if b.prev == none {
		return nil
	}
	return &c.blocks[b.prev]
}

// Next returns the right neighbor of b, or nil at the tail.
func (c *Chain) Next(b *Block) *Block {
	if b.next == none {
		return nil
	}
	return &c.blocks[b.next]
}

// MaxX is the largest position any block has reached.
func (c *Chain) MaxX() float64 { return c.maxX }

// TrackMax folds the current position of block i into MaxX.
func (c *Chain) TrackMax(i int) {
	if x := c.blocks[i].X; x > c.maxX {
		c.maxX = x
	}
}

// BlockAt returns the position of the block whose body [X, X+BlockWidth]
// contains x. The head wins ties.
func (c *Chain) BlockAt(x float64) (int, bool) {
	if c == nil {
		return 0, false
	}
	for i := range c.blocks {
		b := &c.blocks[i]
		if x >= b.X && x <= b.X+c.params.BlockWidth {
			return i, true
		}
	}
	return 0, false
}

// CheckLinks verifies the open-path invariant.
func (c *Chain) CheckLinks() error {
	n := len(c.blocks)
	if n == 0 {
		return fmt.Errorf("%w: empty chain", ErrBrokenLinks)
	}
	if c.blocks[0].prev != none {
		return fmt.Errorf("%w: head has a previous block", ErrBrokenLinks)
	}
	if c.blocks[n-1].next != none {
		return fmt.Errorf("%w: tail has a next block", ErrBrokenLinks)
	}
	seen := make([]bool, n)
	i, visited := 0, 0
	for i != none {
		if seen[i] {
			return fmt.Errorf("%w: cycle at block %d", ErrBrokenLinks, c.blocks[i].Index)
		}
		seen[i] = true
		visited++
		b := &c.blocks[i]
		if b.Index != visited {
			return fmt.Errorf("%w: index %d at position %d", ErrBrokenLinks, b.Index, visited)
		}
		if b.next != none && c.blocks[b.next].prev != i {
			return fmt.Errorf("%w: block %d is not linked back", ErrBrokenLinks, c.blocks[b.next].Index)
		}
		i = b.next
	}
	if visited != n {
		return fmt.Errorf("%w: path covers %d of %d blocks", ErrBrokenLinks, visited, n)
	}
	return nil
}

// Finite reports whether every block's state is free of NaN and Inf.
func (c *Chain) Finite() bool {
	for i := range c.blocks {
		b := &c.blocks[i]
		for _, v := range [...]float64{b.X, b.V, b.VPrev, b.A, b.E} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
