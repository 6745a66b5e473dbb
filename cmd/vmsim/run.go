package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/Crabasa0/paging/datarecording"
	"github.com/Crabasa0/paging/monitoring"
	"github.com/Crabasa0/paging/vm"
	"github.com/Crabasa0/paging/vm/backingstore"
	"github.com/Crabasa0/paging/vm/mmu"
)

var (
	numPages    int
	realMemSize uint32
	storeFile   string
	traceDB     string
	monitorOn   bool
	monitorPort int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo workload that faults, evicts, and swaps pages back in",
	Run: func(cmd *cobra.Command, args []string) {
		runWorkload()
	},
}

func init() {
	runCmd.Flags().IntVar(&numPages, "pages", 16,
		"number of simulated pages the workload touches")
	runCmd.Flags().Uint32Var(&realMemSize, "real-mem-size", 0,
		"arena size in bytes, overriding "+vm.RealMemorySizeEnv)
	runCmd.Flags().StringVar(&storeFile, "store-file", "",
		"back pages with a file instead of memory")
	runCmd.Flags().StringVar(&traceDB, "trace", "",
		"record paging events to a SQLite database at this path plus .sqlite3")
	runCmd.Flags().BoolVar(&monitorOn, "monitor", false,
		"serve engine statistics over HTTP")
	runCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"port for the monitoring server")

	rootCmd.AddCommand(runCmd)
}

func runWorkload() {
	// Allow a .env file to supply VMSIM_REAL_MEM_SIZE.
	_ = godotenv.Load()

	engine := buildEngine()

	translator := mmu.MakeBuilder().
		WithMemory(engine).
		WithFaultHandler(engine).
		WithUpperTable(engine.UpperTable()).
		Build()
	engine.AttachTranslator(translator)

	if monitorOn {
		monitor := monitoring.NewMonitor().WithPortNumber(monitorPort)
		monitor.RegisterEngine(engine)
		monitor.StartServer()
	}

	base := engine.Alloc(uint32(numPages) * vm.PageSize)

	writePattern(engine, base)
	verifyPattern(engine, base)

	reportStats(engine)
	atexit.Exit(0)
}

func buildEngine() *vm.Engine {
	size := vm.RealMemorySizeFromEnv()
	if realMemSize != 0 {
		size = realMemSize
	}

	builder := vm.MakeBuilder().WithRealMemorySize(size)

	if storeFile != "" {
		store, err := backingstore.NewFileStorage(storeFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vmsim: %v\n", err)
			atexit.Exit(1)
		}

		builder = builder.WithStorage(store)
	}

	if traceDB != "" {
		builder = builder.WithRecorder(datarecording.New(traceDB))
	}

	return builder.Build()
}

// writePattern fills each page with a byte derived from its page number,
// touching every page so that later pages force evictions of earlier ones.
func writePattern(engine *vm.Engine, base vm.SimAddr) {
	buf := make([]byte, vm.PageSize)

	for p := 0; p < numPages; p++ {
		for i := range buf {
			buf[i] = pageByte(p)
		}

		engine.Write(buf, base+vm.SimAddr(p)*vm.PageSize)
	}
}

// verifyPattern reads every page back, swapping evicted pages in again, and
// checks the contents survived the round trip.
func verifyPattern(engine *vm.Engine, base vm.SimAddr) {
	buf := make([]byte, vm.PageSize)

	for p := 0; p < numPages; p++ {
		engine.Read(buf, base+vm.SimAddr(p)*vm.PageSize)

		for i, b := range buf {
			if b != pageByte(p) {
				fmt.Fprintf(os.Stderr,
					"vmsim: page %d byte %d is 0x%02x, want 0x%02x\n",
					p, i, b, pageByte(p))
				atexit.Exit(1)
			}
		}
	}
}

func pageByte(p int) byte {
	return byte(p%255) + 1
}

func reportStats(engine *vm.Engine) {
	stats := engine.Stats()

	fmt.Printf("pages touched:   %d\n", numPages)
	fmt.Printf("frame capacity:  %d\n", stats.FrameCapacity)
	fmt.Printf("resident frames: %d\n", stats.ResidentFrames)
	fmt.Printf("faults:          %d\n", stats.Faults)
	fmt.Printf("lower tables:    %d\n", stats.LowerTables)
	fmt.Printf("evictions:       %d\n", stats.Evictions)
	fmt.Printf("fetches:         %d\n", stats.Fetches)
	fmt.Printf("blocks used:     %d\n", stats.NextBlock-1)

	if err := engine.CheckInvariants(); err != nil {
		fmt.Fprintf(os.Stderr, "vmsim: invariant breach: %v\n", err)
		atexit.Exit(1)
	}
}
