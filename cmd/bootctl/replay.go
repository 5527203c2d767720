package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joshuapare/bootalloc/boot"
	"github.com/joshuapare/bootalloc/cmd/bootctl/logger"
	"github.com/joshuapare/bootalloc/early"
	"github.com/joshuapare/bootalloc/mem"
)

var (
	replayMapped bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayMapped, "mapped", false, "Run against a real memory mapping instead of simulated addresses")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <plan.toml>",
		Short: "Replay an allocation plan and report every step",
		Long: `The replay command executes the alloc, dealloc, pages, free_pages and
extend operations of a TOML plan in order and prints the result of each step
together with the byte and page cursors.

Failed steps (for example NoMemory) are reported and replay continues. The
command fails only if the plan is invalid or the allocator invariants break.

Example:
  bootctl replay boot.toml
  bootctl replay boot.toml --mapped --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// target is the allocator surface a plan drives.
type target interface {
	Alloc(l early.Layout) (mem.Addr, error)
	Dealloc(addr mem.Addr, l early.Layout) error
	AllocPages(count int, alignPow2 mem.Size) (mem.Addr, error)
	DeallocPages(addr mem.Addr, count int) error
	AddMemory(start mem.Addr, size mem.Size) error
	Stats() early.Stats
}

// stageTarget drives a mapped boot.Stage and writes a fill pattern through
// every returned slice, so a bad view fails loudly.
type stageTarget struct {
	*boot.Stage
}

func (st stageTarget) Alloc(l early.Layout) (mem.Addr, error) {
	addr, buf, err := st.Stage.Alloc(l)
	fill(buf, 0xA5)
	return addr, err
}

func (st stageTarget) AllocPages(count int, alignPow2 mem.Size) (mem.Addr, error) {
	addr, buf, err := st.Stage.AllocPages(count, alignPow2)
	fill(buf, 0x5A)
	return addr, err
}

func fill(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}

// Step is the outcome of one plan operation.
type Step struct {
	Index       int      `json:"index"`
	Op          string   `json:"op"`
	Addr        mem.Addr `json:"addr,omitempty"`
	Error       string   `json:"error,omitempty"`
	BytePos     mem.Addr `json:"byte_pos"`
	PagePos     mem.Addr `json:"page_pos"`
	Outstanding uint64   `json:"outstanding"`
}

// ReplayReport is the JSON form of a replay.
type ReplayReport struct {
	Mapped bool        `json:"mapped"`
	Steps  []Step      `json:"steps"`
	Final  early.Stats `json:"final"`
}

func runReplay(args []string) error {
	plan, err := loadPlan(args[0])
	if err != nil {
		return err
	}
	printVerbose("Loaded %d operations from %s\n", len(plan.Ops), args[0])

	log := logger.L.With("plan", args[0])
	tgt, cleanup, err := openTarget(plan, replayMapped, log)
	if err != nil {
		return err
	}
	defer cleanup()

	steps := replay(plan, tgt, log)
	final := tgt.Stats()
	log.Info("replay finished",
		"steps", len(steps),
		"mapped", replayMapped,
		"outstanding", final.Outstanding)

	if jsonOut {
		if err := printJSON(ReplayReport{Mapped: replayMapped, Steps: steps, Final: final}); err != nil {
			return err
		}
	} else {
		printSteps(steps)
		printStats(final)
	}

	if err := final.Check(); err != nil {
		return fmt.Errorf("replay left allocator inconsistent: %w", err)
	}
	return nil
}

func openTarget(plan *Plan, mapped bool, log *slog.Logger) (target, func(), error) {
	if mapped {
		if plan.Start != 0 {
			return nil, nil, fmt.Errorf("plan start %#x cannot be used with --mapped: the mapping chooses its own base", plan.Start)
		}
		s, err := boot.Open(plan.size, &boot.Options{PageSize: plan.pageSize, Logger: log})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open boot stage: %w", err)
		}
		return stageTarget{s}, func() { _ = s.Close() }, nil
	}

	ea, err := early.New(plan.pageSize)
	if err != nil {
		return nil, nil, err
	}
	if err := ea.Init(mem.Addr(plan.Start), plan.size); err != nil {
		return nil, nil, fmt.Errorf("failed to init region: %w", err)
	}
	return ea, func() {}, nil
}

// replay runs every op of plan against tgt. Addresses returned by earlier ops
// are remembered so dealloc and free_pages can refer to them.
func replay(plan *Plan, tgt target, log *slog.Logger) []Step {
	addrs := make([]mem.Addr, len(plan.Ops))
	steps := make([]Step, 0, len(plan.Ops))

	for i, op := range plan.Ops {
		var (
			addr mem.Addr
			err  error
		)
		switch op.Kind {
		case opAlloc:
			addr, err = tgt.Alloc(op.layout())
		case opDealloc:
			ref := plan.Ops[op.Ref]
			err = tgt.Dealloc(addrs[op.Ref], ref.layout())
		case opPages:
			addr, err = tgt.AllocPages(op.Count, mem.Size(op.Align))
		case opFreePages:
			err = tgt.DeallocPages(addrs[op.Ref], plan.Ops[op.Ref].Count)
		case opExtend:
			err = tgt.AddMemory(mem.Addr(op.Start), mem.Size(op.Size))
		}
		addrs[i] = addr

		s := tgt.Stats()
		step := Step{
			Index:       i,
			Op:          op.describe(),
			Addr:        addr,
			BytePos:     s.BytePos,
			PagePos:     s.PagePos,
			Outstanding: s.Outstanding,
		}
		if err != nil {
			step.Error = errorKind(err)
			log.Debug("step failed", "index", i, "op", step.Op, "error", err)
		}
		steps = append(steps, step)
	}
	return steps
}

// errorKind maps allocator errors to the short names shown in reports.
func errorKind(err error) string {
	switch {
	case errors.Is(err, early.ErrNoMemory):
		return "NoMemory"
	case errors.Is(err, early.ErrUnsupported):
		return "Unsupported"
	case errors.Is(err, early.ErrNoOutstanding):
		return "NoOutstanding"
	case errors.Is(err, early.ErrInvalidParam):
		return "InvalidParam"
	default:
		return err.Error()
	}
}

func printSteps(steps []Step) {
	printInfo("\n%-4s %-34s %-14s %-14s %-14s %s\n", "#", "Operation", "Result", "Byte cursor", "Page cursor", "Outstanding")
	for _, s := range steps {
		result := s.Addr.String()
		if s.Error != "" {
			result = s.Error
		}
		printInfo("%-4d %-34s %-14s %-14s %-14s %d\n", s.Index, s.Op, result, s.BytePos.String(), s.PagePos.String(), s.Outstanding)
	}
}
