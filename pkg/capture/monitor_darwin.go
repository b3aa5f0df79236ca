//go:build darwin

package capture

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Cocoa
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

static Boolean axCheckTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}

extern CGEventRef goHandleMonitorEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFRunLoopSourceRef startMonitorTap(uintptr_t handle, CGEventMask mask, CFMachPortRef *tapOut) {
        CFMachPortRef tap = CGEventTapCreate(kCGSessionEventTap,
                                             kCGHeadInsertEventTap,
                                             kCGEventTapOptionListenOnly,
                                             mask,
                                             goHandleMonitorEvent,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        *tapOut = tap;
        return source;
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static void addSourceToRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
}

static CGEventMask cgEventMaskBit(CGEventType type) {
        return ((CGEventMask)1) << type;
}

static double cgEventGetX(CGEventRef event) {
        CGPoint point = CGEventGetLocation(event);
        return point.x;
}

static double cgEventGetY(CGEventRef event) {
        CGPoint point = CGEventGetLocation(event);
        return point.y;
}

static int64_t cgEventClickState(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGMouseEventClickState);
}

static int64_t cgEventKeycode(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
}

static uint64_t cgEventFlags(CGEventRef event) {
        return (uint64_t)CGEventGetFlags(event);
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"strconv"
	"strings"
	"sync"
	"time"
	"unsafe"
)

// DefaultMonitorFactory builds the CGEventTap-backed monitor.
func DefaultMonitorFactory() InputMonitor {
	return &macMonitor{now: time.Now}
}

// macMonitor runs a listen-only CGEventTap on a dedicated, OS-locked
// goroutine. The tap never alters or swallows the events it watches.
type macMonitor struct {
	now func() time.Time

	mu       sync.Mutex
	loop     C.CFRunLoopRef
	running  bool
	stopped  chan struct{}
	stopOnce *sync.Once
}

type macMonitorState struct {
	monitor *macMonitor
	emit    func(ClickEvent)
}

//export goHandleMonitorEvent
func goHandleMonitorEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	handle := cgo.Handle(uintptr(userInfo))
	state, ok := handle.Value().(*macMonitorState)
	if !ok {
		return event
	}
	state.handle(eventType, event)
	return event
}

func (s *macMonitorState) handle(eventType C.CGEventType, event C.CGEventRef) {
	now := s.monitor.now().UTC()
	switch eventType {
	case C.kCGEventLeftMouseDown:
		kind := KindClick
		if int(C.cgEventClickState(event)) >= 2 {
			kind = KindDoubleClick
		}
		s.emit(ClickEvent{
			Timestamp: now,
			Kind:      kind,
			X:         float64(C.cgEventGetX(event)),
			Y:         float64(C.cgEventGetY(event)),
		})
	case C.kCGEventRightMouseDown:
		s.emit(ClickEvent{
			Timestamp: now,
			Kind:      KindRightClick,
			X:         float64(C.cgEventGetX(event)),
			Y:         float64(C.cgEventGetY(event)),
		})
	case C.kCGEventKeyDown:
		flags := uint64(C.cgEventFlags(event))
		shortcut := shortcutLabel(flags, int(C.cgEventKeycode(event)))
		if shortcut == "" {
			return
		}
		s.emit(ClickEvent{
			Timestamp: now,
			Kind:      KindShortcut,
			X:         float64(C.cgEventGetX(event)),
			Y:         float64(C.cgEventGetY(event)),
			Shortcut:  shortcut,
		})
	}
}

// shortcutLabel renders a modifier chord. Plain keystrokes return "" so
// ordinary typing is never recorded.
func shortcutLabel(flags uint64, keycode int) string {
	const (
		maskCommand = 0x100000
		maskControl = 0x40000
		maskOption  = 0x80000
		maskShift   = 0x20000
	)
	if flags&(maskCommand|maskControl|maskOption) == 0 {
		return ""
	}
	parts := make([]string, 0, 4)
	if flags&maskControl != 0 {
		parts = append(parts, "ctrl")
	}
	if flags&maskOption != 0 {
		parts = append(parts, "opt")
	}
	if flags&maskCommand != 0 {
		parts = append(parts, "cmd")
	}
	if flags&maskShift != 0 {
		parts = append(parts, "shift")
	}
	parts = append(parts, "key:"+strconv.Itoa(keycode))
	return strings.Join(parts, "+")
}

func (m *macMonitor) Start(emit func(ClickEvent)) error {
	if C.axCheckTrusted() == C.Boolean(0) {
		return ErrAccessibilityPermission
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.stopped = make(chan struct{})
	m.stopOnce = &sync.Once{}
	stopped := m.stopped
	m.mu.Unlock()

	ready := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		state := &macMonitorState{monitor: m, emit: emit}
		handle := cgo.NewHandle(state)
		defer handle.Delete()

		mask := C.cgEventMaskBit(C.kCGEventLeftMouseDown) |
			C.cgEventMaskBit(C.kCGEventRightMouseDown) |
			C.cgEventMaskBit(C.kCGEventKeyDown)

		var tap C.CFMachPortRef
		source := C.startMonitorTap(C.uintptr_t(handle), mask, &tap)
		if source == 0 {
			ready <- ErrAccessibilityPermission
			return
		}
		defer C.CFRelease(C.CFTypeRef(source))
		defer C.CFRelease(C.CFTypeRef(tap))

		loop := C.currentRunLoop()
		m.mu.Lock()
		m.loop = loop
		m.mu.Unlock()

		C.addSourceToRunLoop(loop, source)
		ready <- nil
		C.runCurrentRunLoop()
		close(stopped)
	}()

	if err := <-ready; err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *macMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	loop := m.loop
	once := m.stopOnce
	stopped := m.stopped
	m.mu.Unlock()

	if once != nil && loop != 0 {
		once.Do(func() {
			C.stopRunLoop(loop)
		})
	}
	if stopped != nil {
		<-stopped
	}
}
