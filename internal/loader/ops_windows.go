//go:build windows

package loader

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx     = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = kernel32.NewProc("GetExitCodeThread")
	procLoadLibraryW       = kernel32.NewProc("LoadLibraryW")
	procFreeLibrary        = kernel32.NewProc("FreeLibrary")
)

const processAccess = windows.PROCESS_CREATE_THREAD |
	windows.PROCESS_QUERY_INFORMATION |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_READ

type nativeOps struct{}

func (nativeOps) ModuleBase(pid int32, module string) (uintptr, bool, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return 0, false, fmt.Errorf("snapshot modules: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Module32First(snap, &entry); err == nil; err = windows.Module32Next(snap, &entry) {
		if strings.EqualFold(windows.UTF16ToString(entry.Module[:]), module) {
			return entry.ModBaseAddr, true, nil
		}
	}
	if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("walking modules: %w", err)
}

// errThreadRunning means the remote thread may still be executing, so any
// memory it reads must stay allocated.
var errThreadRunning = errors.New("remote thread still running")

// Inject runs LoadLibraryW(dllPath) on a thread inside pid. kernel32 is
// mapped at the same address in every process of a session, so the local
// address of LoadLibraryW is valid remotely. The thread exit code holds only
// the low 32 bits of the module handle; callers confirm the load with
// ModuleBase.
func (nativeOps) Inject(pid int32, dllPath string, timeout time.Duration) error {
	path, err := windows.UTF16FromString(dllPath)
	if err != nil {
		return err
	}
	if err := procLoadLibraryW.Find(); err != nil {
		return err
	}

	proc, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open process: %w", err)
	}
	defer windows.CloseHandle(proc)

	size := uintptr(len(path) * 2)
	remote, _, callErr := procVirtualAllocEx.Call(uintptr(proc), 0, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if remote == 0 {
		return fmt.Errorf("allocate remote memory: %w", callErr)
	}

	if err := windows.WriteProcessMemory(proc, remote, (*byte)(unsafe.Pointer(&path[0])), size, nil); err != nil {
		procVirtualFreeEx.Call(uintptr(proc), remote, 0, windows.MEM_RELEASE)
		return fmt.Errorf("write remote memory: %w", err)
	}

	_, err = runRemote(proc, procLoadLibraryW.Addr(), remote, timeout)
	if errors.Is(err, errThreadRunning) {
		// LoadLibraryW may still read the path; leak it.
		return err
	}
	procVirtualFreeEx.Call(uintptr(proc), remote, 0, windows.MEM_RELEASE)
	return err
}

// Eject runs FreeLibrary(base) on a thread inside pid.
func (nativeOps) Eject(pid int32, base uintptr, timeout time.Duration) error {
	if err := procFreeLibrary.Find(); err != nil {
		return err
	}
	proc, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open process: %w", err)
	}
	defer windows.CloseHandle(proc)

	code, err := runRemote(proc, procFreeLibrary.Addr(), base, timeout)
	if err != nil {
		return err
	}
	if code == 0 {
		return errors.New("FreeLibrary failed in the compositor process")
	}
	return nil
}

// runRemote starts fn(arg) on a new thread in proc, waits for it and returns
// the thread's exit code.
func runRemote(proc windows.Handle, fn, arg uintptr, timeout time.Duration) (uint32, error) {
	th, _, callErr := procCreateRemoteThread.Call(uintptr(proc), 0, 0, fn, arg, 0, 0)
	if th == 0 {
		return 0, fmt.Errorf("create remote thread: %w", callErr)
	}
	thread := windows.Handle(th)
	defer windows.CloseHandle(thread)

	event, err := windows.WaitForSingleObject(thread, uint32(timeout.Milliseconds()))
	if err != nil {
		return 0, fmt.Errorf("%w: wait failed: %v", errThreadRunning, err)
	}
	if event != windows.WAIT_OBJECT_0 {
		return 0, fmt.Errorf("%w after %s", errThreadRunning, timeout)
	}

	var code uint32
	ok, _, callErr := procGetExitCodeThread.Call(th, uintptr(unsafe.Pointer(&code)))
	if ok == 0 {
		return 0, fmt.Errorf("read remote thread exit code: %w", callErr)
	}
	return code, nil
}
