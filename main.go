// main.go - Aurora-32 entry point

/*
    ___                                      ________
   /   | __  ___________  _________ _      |__  /__ \
  / /| |/ / / / ___/ __ \/ ___/ __ `/________/_ <__/ /
 / ___ / /_/ / /  / /_/ / /  / /_/ /_____/___/ // __/
/_/  |_\__,_/_/   \____/_/   \__,_/      /____//____/

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Aurora32
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/intuitionamiga/Aurora32/assembler"
)

func boilerPlate() {
	fmt.Println("\033[38;2;120;200;255m    ___                                      ________\033[0m")
	fmt.Println("\033[38;2;140;205;255m   /   | __  ___________  _________ _      |__  /__ \\\033[0m")
	fmt.Println("\033[38;2;160;210;255m  / /| |/ / / / ___/ __ \\/ ___/ __ `/________/_ <__/ /\033[0m")
	fmt.Println("\033[38;2;180;220;255m / ___ / /_/ / /  / /_/ / /  / /_/ /_____/___/ // __/\033[0m")
	fmt.Println("\033[38;2;200;230;255m/_/  |_\\__,_/_/   \\____/_/   \\__,_/      /____//____/\033[0m")
	fmt.Println("\nA 32-bit RISC-V home computer that never was.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/Aurora32")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func parseAddr(value string, fallback uint32) (uint32, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", value, err)
	}
	return uint32(parsed), nil
}

func main() {
	boilerPlate()

	var (
		loadAddr  string
		entryAddr string
		memSize   uint
		diskPath  string
		cdromPath string
		usbPath   string
		fsRoot    string
		videoMode string
		script    string
		maxSteps  int
		trace     bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&loadAddr, "load-addr", "", "program load address (hex or decimal)")
	flagSet.StringVar(&entryAddr, "entry", "", "entry address (defaults to the load address)")
	flagSet.UintVar(&memSize, "mem", DEFAULT_RAM_SIZE, "RAM size in bytes")
	flagSet.StringVar(&diskPath, "disk", "", "HDD image file (read/write)")
	flagSet.StringVar(&cdromPath, "cdrom", "", "CD-ROM image file (read-only)")
	flagSet.StringVar(&usbPath, "usb", "", "USB image file (read/write)")
	flagSet.StringVar(&fsRoot, "fs-root", ".", "host directory backing the guest filesystem")
	flagSet.StringVar(&videoMode, "video", "window", "video output: window, term or none")
	flagSet.StringVar(&script, "script", "", "run a lua automation script instead of the program")
	flagSet.IntVar(&maxSteps, "max-steps", 0, "instruction budget, 0 for unlimited")
	flagSet.BoolVar(&trace, "trace", false, "print each instruction as it executes")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./aurora32 [options] program.bin|program.s")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	filename := flagSet.Arg(0)
	if filename == "" && script == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	m, err := NewMachine(uint32(memSize), fsRoot)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	attach := func(slot int, name, path string, readOnly bool) {
		if path == "" {
			return
		}
		dev, err := LoadBlockDevice(name, path, readOnly)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		m.Storage().Attach(slot, dev)
	}
	attach(STOR_DEV_HDD, "hdd", diskPath, false)
	attach(STOR_DEV_CDROM, "cdrom", cdromPath, true)
	attach(STOR_DEV_USB, "usb", usbPath, false)
	if diskPath == "" {
		// 16MB scratch disk so sector syscalls always have a target.
		m.Storage().Attach(STOR_DEV_HDD, NewBlockDevice("hdd", 32768, false))
	}

	if filename != "" {
		if err := loadGuestProgram(m, filename, loadAddr, entryAddr); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	m.CPU().SetTrace(trace)

	if script != "" {
		if err := RunDebugScript(m, script); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		_ = m.Shutdown()
		return
	}

	budget := maxSteps
	if budget <= 0 {
		budget = math.MaxInt
	}

	var code uint32
	switch videoMode {
	case "window":
		code = runWindowed(m, budget)
	case "term":
		code = runTerminal(m, budget)
	case "none":
		m.Run(budget)
		fmt.Print(m.ConsoleOutput())
		code = m.CPU().ExitCode()
	default:
		fmt.Printf("Error: unknown video mode %q\n", videoMode)
		os.Exit(1)
	}

	if err := m.Shutdown(); err != nil {
		fmt.Printf("Warning: shutdown: %v\n", err)
	}
	os.Exit(int(code & 0xFF))
}

// loadGuestProgram loads a flat binary, or assembles a .s/.asm source
// first, and points the CPU at the entry address.
func loadGuestProgram(m *Machine, filename, loadAddr, entryAddr string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	origin := uint32(DEFAULT_LOAD)
	if strings.HasSuffix(filename, ".s") || strings.HasSuffix(filename, ".asm") {
		asm := assembler.New()
		image, err := asm.Assemble(string(data))
		if err != nil {
			return err
		}
		data = image
		origin = asm.Origin()
	}

	load, err := parseAddr(loadAddr, origin)
	if err != nil {
		return err
	}
	entry, err := parseAddr(entryAddr, load)
	if err != nil {
		return err
	}

	if err := m.LoadProgram(data, load); err != nil {
		return err
	}
	m.SetEntry(entry)
	fmt.Printf("Loaded %d bytes at %08x, entry %08x\n", len(data), load, entry)
	return nil
}

// stepLoop drives the CPU, sleeping briefly whenever a suspended getline
// is waiting on an empty key FIFO so the host core is not burned idle.
func stepLoop(m *Machine, budget int, stop <-chan struct{}) {
	cpu := m.CPU()
	used := 0
	for used < budget && !cpu.Halted() {
		select {
		case <-stop:
			return
		default:
		}
		used += m.Run(minInt(budget-used, 10000))
		if cpu.State() == CPU_WAITLINE && m.Keyboard().Pending() == 0 {
			time.Sleep(2 * time.Millisecond)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// runWindowed runs the guest under the ebiten display with oto audio.
func runWindowed(m *Machine, budget int) uint32 {
	video, err := NewVideoOutput(VIDEO_BACKEND_EBITEN, m.GPU(), m.Keyboard(), func() { m.Reset() })
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	audio, err := NewOtoPlayer(SPEAKER_SAMPLE_RATE)
	if err != nil {
		fmt.Printf("Warning: audio unavailable: %v\n", err)
	} else {
		audio.SetupPlayer(m.Speaker())
		audio.Start()
		defer audio.Close()
	}

	if err := video.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	stop := make(chan struct{})
	halted := make(chan struct{})
	go func() {
		stepLoop(m, budget, stop)
		close(halted)
	}()

	select {
	case <-video.Done():
		close(stop)
	case <-halted:
	}
	_ = video.Stop()
	return m.CPU().ExitCode()
}

// runTerminal runs the guest against raw stdin/stdout with no window.
func runTerminal(m *Machine, budget int) uint32 {
	host := NewTerminalHost(m.Keyboard(), m.GPU())
	host.Start()
	defer host.Stop()

	stepLoop(m, budget, nil)
	return m.CPU().ExitCode()
}
