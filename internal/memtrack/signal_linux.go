//go:build linux

package memtrack

/*
#include <signal.h>
#include <stdint.h>
#include <string.h>

static struct sigaction prev_segv_action;

extern int goHandleFault(uintptr_t addr, int write);

static void memtrack_sigsegv_trampoline(int sig, siginfo_t* info, void* ucontext) {
	uintptr_t fault_addr = (uintptr_t)info->si_addr;
	// x86-64/arm64 ucontext error-code bit 1 marks a write fault; when
	// we can't read it portably we conservatively treat the access as
	// a write, which only costs an extra refresh-from-driver copy, not
	// correctness.
	int is_write = 1;
	if (goHandleFault(fault_addr, is_write)) {
		return;
	}
	if (prev_segv_action.sa_sigaction) {
		prev_segv_action.sa_sigaction(sig, info, ucontext);
	} else {
		signal(SIGSEGV, SIG_DFL);
		raise(SIGSEGV);
	}
}

static int memtrack_install(void) {
	struct sigaction sa;
	memset(&sa, 0, sizeof(sa));
	sa.sa_sigaction = memtrack_sigsegv_trampoline;
	sa.sa_flags = SA_SIGINFO | SA_NODEFER;
	sigemptyset(&sa.sa_mask);
	return sigaction(SIGSEGV, &sa, &prev_segv_action);
}
*/
import "C"

import (
	"fmt"
)

// InstallSignalHandler wires this process's SIGSEGV delivery into
// Tracker.HandleFault via a small cgo trampoline, the Go-idiomatic
// stand-in for the original's process-wide
// AddVectoredExceptionHandler(1, &handler) call.
//
// Scope limitation, recorded here rather than silently assumed: Go's
// own runtime also uses SIGSEGV (for goroutine stack-growth probes and
// nil-pointer derefs), and installs its handler before any cgo code
// runs. This trampoline is chained in front of it via sigaction's
// returned previous handler, so faults outside a tracked shadow range
// fall through to Go's runtime handler unchanged; only addresses
// Tracker.HandleFault recognizes as belonging to a tracked range are
// consumed here. A production deployment targeting a foreign native
// thread the Go runtime never scheduled would need nothing extra —
// sigaction installs process-wide — but this file only targets Linux,
// the platform the base caller's vulkan-go/vulkan dependency already
// assumes for the CGO_ENABLED build this module requires throughout.
func InstallSignalHandler() error {
	if rc := C.memtrack_install(); rc != 0 {
		return fmt.Errorf("memtrack: sigaction install failed: rc=%d", int(rc))
	}
	return nil
}

//export goHandleFault
func goHandleFault(addr C.uintptr_t, write C.int) C.int {
	t := Current()
	if t == nil {
		return 0
	}
	if t.HandleFault(uintptr(addr), write == 0) {
		return 1
	}
	return 0
}
