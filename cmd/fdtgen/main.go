// fdtgen builds a flattened device tree blob from boot information, or
// checks and prints an existing one.
//
// The memory map comes from a boot information file (--bootinfo, YAML or
// CBOR) and/or repeated --mem base:length flags. The resulting tree always
// carries /memory/reg describing the map; --tree layers the builder's nodes
// on top of a YAML-described board tree.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/moffa90/go-fdt/boot"
	"github.com/moffa90/go-fdt/devicetree"
	"github.com/moffa90/go-fdt/dtread"
	"github.com/moffa90/go-fdt/fdt"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, fdt.ErrNotCompatible) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type options struct {
	bootInfo     string
	saveBootInfo string
	memory       []string
	reserve      []string
	tree         string
	commandLine  string
	bootCPU      uint32
	narrow       string
	noCells      bool
	out          string
	check        string
	dump         bool
	logLevel     string
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("fdtgen", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.bootInfo, "bootinfo", "", "boot information file (.yaml or .cbor)")
	flagSet.StringVar(&opts.saveBootInfo, "save-bootinfo", "", "write the effective boot information to this file (.yaml or .cbor)")
	flagSet.StringArrayVar(&opts.memory, "mem", nil, "usable memory region as base:length (repeatable)")
	flagSet.StringArrayVar(&opts.reserve, "reserve", nil, "reserved range as address:size (repeatable)")
	flagSet.StringVar(&opts.tree, "tree", "", "YAML board description used as the base tree")
	flagSet.StringVar(&opts.commandLine, "bootargs", "", "kernel command line for /chosen/bootargs")
	flagSet.Uint32Var(&opts.bootCPU, "boot-cpu", 0, "physical ID of the boot CPU")
	flagSet.StringVar(&opts.narrow, "narrow", "fail", "handling of addresses above 4 GiB: fail, saturate or truncate")
	flagSet.BoolVar(&opts.noCells, "no-cells", false, "omit #address-cells, #size-cells and device_type")
	flagSet.StringVarP(&opts.out, "out", "o", "", "write the blob to this file")
	flagSet.StringVar(&opts.check, "check", "", "check an existing blob instead of building one")
	flagSet.BoolVar(&opts.dump, "dump", false, "print the tree to stdout")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", opts.logLevel)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if opts.check != "" {
		return checkFile(opts.check, opts.dump, stdout, logger)
	}
	return build(opts, flagSet, stdout, logger)
}

func checkFile(path string, printTree bool, stdout io.Writer, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}

	if err := boot.Check(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("blob is compatible", "path", path, "size", len(data))

	if !printTree {
		return nil
	}
	r, err := dtread.FromBlob(data)
	if err != nil {
		return err
	}
	return dump(stdout, r)
}

func build(opts options, flagSet *pflag.FlagSet, stdout io.Writer, logger *slog.Logger) error {
	bc, err := bootContext(opts, flagSet)
	if err != nil {
		return err
	}

	policy, err := boot.ParseNarrowPolicy(opts.narrow)
	if err != nil {
		return err
	}

	builderOpts := []boot.Option{
		boot.WithLogger(logger),
		boot.WithNarrowPolicy(policy),
		boot.WithCellProperties(!opts.noCells),
		boot.WithProgressCallback(func(p boot.Progress) {
			logger.Debug("progress", "phase", p.Phase, "nodes", p.Nodes, "size", p.BlobSize, "elapsed", p.ElapsedTime)
		}),
	}
	if opts.tree != "" {
		base, err := devicetree.Load(opts.tree)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", opts.tree, err)
		}
		builderOpts = append(builderOpts, boot.WithBaseTree(base))
	}

	if opts.saveBootInfo != "" {
		if err := saveContext(opts.saveBootInfo, bc); err != nil {
			return err
		}
	}

	data, err := boot.New(builderOpts...).Build(bc)
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write blob: %w", err)
		}
		logger.Info("blob written", "path", opts.out, "size", len(data))
	}

	if opts.dump {
		r, err := dtread.FromBlob(data)
		if err != nil {
			return err
		}
		return dump(stdout, r)
	}
	return nil
}

// bootContext merges the boot information file with the command line.
// Regions and reservations from flags are appended; scalar flags override
// the file only when set.
func bootContext(opts options, flagSet *pflag.FlagSet) (*boot.Context, error) {
	bc := &boot.Context{}
	if opts.bootInfo != "" {
		loaded, err := boot.LoadContext(opts.bootInfo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.bootInfo, err)
		}
		bc = loaded
	}

	for _, s := range opts.memory {
		base, length, err := parseRange(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --mem %q: %w", s, err)
		}
		bc.MemoryMap = append(bc.MemoryMap, boot.MemoryRegion{Base: base, Length: length})
	}

	for _, s := range opts.reserve {
		addr, size, err := parseRange(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --reserve %q: %w", s, err)
		}
		bc.Reserved = append(bc.Reserved, boot.Reservation{Address: addr, Size: size})
	}

	if flagSet.Changed("bootargs") {
		bc.CommandLine = opts.commandLine
	}
	if flagSet.Changed("boot-cpu") {
		bc.BootCPU = opts.bootCPU
	}

	if err := bc.Validate(); err != nil {
		return nil, err
	}
	return bc, nil
}

func saveContext(path string, bc *boot.Context) error {
	format := boot.FormatYAML
	if strings.HasSuffix(strings.ToLower(path), ".cbor") {
		format = boot.FormatCBOR
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := boot.EncodeContext(f, bc, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// parseRange splits "start:size" into two numbers. Both accept Go integer
// literal prefixes (0x, 0o, 0b).
func parseRange(s string) (uint64, uint64, error) {
	first, second, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected start:size")
	}

	start, err := strconv.ParseUint(strings.TrimSpace(first), 0, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	size, err := strconv.ParseUint(strings.TrimSpace(second), 0, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("size: %w", err)
	}
	return start, size, nil
}
