package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/bootalloc/early"
	"github.com/joshuapare/bootalloc/mem"
)

// Operation kinds accepted in a plan.
const (
	opAlloc       = "alloc"
	opDealloc     = "dealloc"
	opPages       = "pages"
	opFreePages   = "free_pages"
	opExtend      = "extend"
	defaultRegion = "64 KiB"
)

// Plan is a replayable sequence of allocator calls.
//
//	start = 0x1000
//	size = "8 KiB"
//	page_size = "4 KiB"
//
//	[[op]]
//	kind = "alloc"
//	size = 16
//	align = 8
//
//	[[op]]
//	kind = "dealloc"
//	ref = 0        # index of an earlier alloc op
type Plan struct {
	Start    uint64 `toml:"start"`
	Size     string `toml:"size"`
	PageSize string `toml:"page_size"`
	Ops      []Op   `toml:"op"`

	size     mem.Size
	pageSize mem.Size
}

// Op is one step of a plan. Which fields matter depends on Kind.
type Op struct {
	Kind  string `toml:"kind"`
	Size  uint64 `toml:"size"`  // alloc, extend
	Align uint64 `toml:"align"` // alloc, pages
	Count int    `toml:"count"` // pages, free_pages
	Ref   int    `toml:"ref"`   // dealloc, free_pages: index of the op that allocated
	Start uint64 `toml:"start"` // extend
}

func (op Op) layout() early.Layout {
	return early.Layout{Size: mem.Size(op.Size), Align: mem.Size(op.Align)}
}

func (op Op) describe() string {
	switch op.Kind {
	case opAlloc:
		return fmt.Sprintf("alloc(size=%d, align=%d)", op.Size, op.Align)
	case opDealloc:
		return fmt.Sprintf("dealloc(ref=#%d)", op.Ref)
	case opPages:
		return fmt.Sprintf("pages(count=%d, align=%#x)", op.Count, op.Align)
	case opFreePages:
		return fmt.Sprintf("free_pages(ref=#%d)", op.Ref)
	case opExtend:
		return fmt.Sprintf("extend(start=%#x, size=%d)", op.Start, op.Size)
	}
	return op.Kind
}

// loadPlan decodes and validates a plan file.
func loadPlan(path string) (*Plan, error) {
	var p Plan
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown plan keys: %s", strings.Join(keys, ", "))
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) validate() error {
	if p.Size == "" {
		p.Size = defaultRegion
	}
	size, err := mem.ParseSize(p.Size)
	if err != nil {
		return err
	}
	p.size = size

	p.pageSize = early.DefaultPageSize
	if p.PageSize != "" {
		ps, err := mem.ParseSize(p.PageSize)
		if err != nil {
			return err
		}
		p.pageSize = ps
	}
	if !mem.IsPowerOfTwo(uintptr(p.pageSize)) {
		return fmt.Errorf("page_size %s is not a power of two", p.pageSize)
	}

	for i, op := range p.Ops {
		switch op.Kind {
		case opAlloc, opPages, opExtend:
		case opDealloc, opFreePages:
			if op.Ref < 0 || op.Ref >= i {
				return fmt.Errorf("op #%d: ref %d must name an earlier op", i, op.Ref)
			}
			want := opAlloc
			if op.Kind == opFreePages {
				want = opPages
			}
			if p.Ops[op.Ref].Kind != want {
				return fmt.Errorf("op #%d: ref %d is %q, want %q", i, op.Ref, p.Ops[op.Ref].Kind, want)
			}
		default:
			return fmt.Errorf("op #%d: unknown kind %q", i, op.Kind)
		}
	}
	return nil
}
