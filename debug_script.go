// debug_script.go - Lua-scriptable machine automation for Aurora-32

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

/*
debug_script.go - Lua Machine Automation

Embeds a Lua interpreter with the machine exposed as a set of globals, for
scripted debugging sessions and smoke tests driven from the -script flag:

  peek8(addr), peek32(addr)        bus reads
  poke8(addr, v), poke32(addr, v)  bus writes
  reg(i), setreg(i, v)             register file access
  pc(), setpc(addr)                program counter
  step([n]), run(n)                execution; run returns steps consumed
  halted(), exitcode()             execution status
  loadbin(path, addr)              load a flat binary into RAM
  pushkeys(s)                      queue keyboard input
  console()                        drain the console log
  screenrow(y)                     text grid row as a string
  disasm(addr, n)                  print n instructions from addr

Addresses and values are plain Lua numbers; errors from the host (bad
file paths and the like) raise Lua errors so a script fails loudly.
*/

package main

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// RunDebugScript executes a Lua automation script against the machine.
func RunDebugScript(m *Machine, path string) error {
	L := lua.NewState()
	defer L.Close()

	registerMachineAPI(L, m)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func registerMachineAPI(L *lua.LState, m *Machine) {
	setFn := func(name string, fn lua.LGFunction) {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	setFn("peek8", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.Bus().Read8(uint32(L.CheckNumber(1)))))
		return 1
	})
	setFn("peek32", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.Bus().Read32(uint32(L.CheckNumber(1)))))
		return 1
	})
	setFn("poke8", func(L *lua.LState) int {
		m.Bus().Write8(uint32(L.CheckNumber(1)), byte(L.CheckNumber(2)))
		return 0
	})
	setFn("poke32", func(L *lua.LState) int {
		m.Bus().Write32(uint32(L.CheckNumber(1)), uint32(L.CheckNumber(2)))
		return 0
	})

	setFn("reg", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.CPU().Reg(uint32(L.CheckNumber(1)))))
		return 1
	})
	setFn("setreg", func(L *lua.LState) int {
		m.CPU().SetReg(uint32(L.CheckNumber(1)), uint32(L.CheckNumber(2)))
		return 0
	})
	setFn("pc", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.CPU().PC()))
		return 1
	})
	setFn("setpc", func(L *lua.LState) int {
		m.CPU().SetPC(uint32(L.CheckNumber(1)))
		return 0
	})

	setFn("step", func(L *lua.LState) int {
		n := 1
		if L.GetTop() >= 1 {
			n = int(L.CheckNumber(1))
		}
		for i := 0; i < n; i++ {
			m.Step()
		}
		return 0
	})
	setFn("run", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.Run(int(L.CheckNumber(1)))))
		return 1
	})
	setFn("halted", func(L *lua.LState) int {
		L.Push(lua.LBool(m.CPU().Halted()))
		return 1
	})
	setFn("exitcode", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.CPU().ExitCode()))
		return 1
	})

	setFn("loadbin", func(L *lua.LState) int {
		path := L.CheckString(1)
		addr := uint32(L.CheckNumber(2))
		data, err := os.ReadFile(path)
		if err != nil {
			L.RaiseError("loadbin: %v", err)
			return 0
		}
		if err := m.LoadProgram(data, addr); err != nil {
			L.RaiseError("loadbin: %v", err)
			return 0
		}
		return 0
	})

	setFn("pushkeys", func(L *lua.LState) int {
		m.Keyboard().PushString(L.CheckString(1))
		return 0
	})
	setFn("console", func(L *lua.LState) int {
		L.Push(lua.LString(m.ConsoleOutput()))
		return 1
	})
	setFn("screenrow", func(L *lua.LState) int {
		L.Push(lua.LString(m.GPU().TextRow(uint32(L.CheckNumber(1)))))
		return 1
	})

	setFn("disasm", func(L *lua.LState) int {
		addr := uint32(L.CheckNumber(1))
		count := int(L.CheckNumber(2))
		for i := 0; i < count; i++ {
			pc := addr + uint32(i*4)
			inst := m.Bus().Read32(pc)
			fmt.Printf("%08x: %08x  %s\n", pc, inst, DisasmRV32(pc, inst))
		}
		return 0
	})
}
