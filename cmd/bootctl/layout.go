package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/bootalloc/early"
	"github.com/joshuapare/bootalloc/mem"
)

var (
	layoutStart    string
	layoutSize     string
	layoutPageSize string
)

func init() {
	cmd := newLayoutCmd()
	cmd.Flags().StringVar(&layoutStart, "start", "0x0", "Region start address")
	cmd.Flags().StringVar(&layoutSize, "size", defaultRegion, "Region size (e.g. 8KiB, 2MiB)")
	cmd.Flags().StringVar(&layoutPageSize, "page-size", "4KiB", "Page allocation granularity")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show the byte and page capacity of a region",
		Long: `The layout command initializes a simulated boot allocator over the given
region and reports its bounds, total bytes and total pages.

Example:
  bootctl layout --start 0x1000 --size 8KiB --page-size 4KiB
  bootctl layout --size 2MiB --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout()
		},
	}
	return cmd
}

func runLayout() error {
	start, err := parseAddr(layoutStart)
	if err != nil {
		return err
	}
	size, err := mem.ParseSize(layoutSize)
	if err != nil {
		return err
	}
	pageSize, err := mem.ParseSize(layoutPageSize)
	if err != nil {
		return err
	}

	ea, err := early.New(pageSize)
	if err != nil {
		return fmt.Errorf("page size %s: %w", pageSize, err)
	}
	if err := ea.Init(start, size); err != nil {
		return fmt.Errorf("region [%v, +%d): %w", start, size, err)
	}

	if jsonOut {
		return printJSON(ea.Stats())
	}
	printStats(ea.Stats())
	return nil
}

// parseAddr accepts decimal, 0x-prefixed hex and 0o/0b forms.
func parseAddr(s string) (mem.Addr, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if uint64(mem.Addr(n)) != n {
		return 0, fmt.Errorf("address %q does not fit in a pointer", s)
	}
	return mem.Addr(n), nil
}

func printStats(s early.Stats) {
	printInfo("\nRegion:\n")
	printInfo("  Bounds:      [%s, %s)\n", s.Start.String(), s.End.String())
	printInfo("  Page size:   %s\n", s.PageSize.String())
	printInfo("  Byte cursor: %s\n", s.BytePos.String())
	printInfo("  Page cursor: %s\n", s.PagePos.String())
	printInfo("\nBytes:\n")
	printInfo("  Total:       %d (%s)\n", uint64(s.TotalBytes), s.TotalBytes.String())
	printInfo("  Used:        %d\n", uint64(s.UsedBytes))
	printInfo("  Available:   %d\n", uint64(s.AvailableBytes))
	printInfo("  Outstanding: %d\n", s.Outstanding)
	printInfo("\nPages:\n")
	printInfo("  Total:       %d\n", s.TotalPages)
	printInfo("  Used:        %d\n", s.UsedPages)
	printInfo("  Available:   %d\n", s.AvailablePages)
}
