//go:build darwin

package capture

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework ApplicationServices -framework Cocoa
#include <ApplicationServices/ApplicationServices.h>
#include <Cocoa/Cocoa.h>
#include <stdlib.h>
#include <string.h>

// Private but long-stable; the only way to map an AX window to a CGWindowID.
extern AXError _AXUIElementGetWindow(AXUIElementRef element, CGWindowID *out);

struct FrontWindow {
        char *app;
        char *title;
        double x;
        double y;
        double width;
        double height;
        int64_t window_id;
        int status; // 0 ok, 1 no frontmost app, 2 no windows, 3 info failed
};

static char *nsStringCopy(NSString *str) {
        if (str == nil) {
                return NULL;
        }
        return strdup(str.UTF8String);
}

static struct FrontWindow copyFrontmostWindow(void) {
        struct FrontWindow result = {0};

        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (app == nil) {
                result.status = 1;
                return result;
        }
        result.app = nsStringCopy(app.localizedName);

        AXUIElementRef axApp = AXUIElementCreateApplication(app.processIdentifier);
        if (axApp == NULL) {
                result.status = 3;
                return result;
        }

        AXUIElementRef window = NULL;
        AXError err = AXUIElementCopyAttributeValue(axApp, kAXFocusedWindowAttribute, (CFTypeRef *)&window);
        if (err != kAXErrorSuccess || window == NULL) {
                CFRelease(axApp);
                result.status = 2;
                return result;
        }

        CFStringRef title = NULL;
        if (AXUIElementCopyAttributeValue(window, kAXTitleAttribute, (CFTypeRef *)&title) == kAXErrorSuccess && title != NULL) {
                result.title = nsStringCopy((__bridge NSString *)title);
                CFRelease(title);
        }

        AXValueRef positionValue = NULL;
        AXValueRef sizeValue = NULL;
        CGPoint position = CGPointZero;
        CGSize size = CGSizeZero;
        if (AXUIElementCopyAttributeValue(window, kAXPositionAttribute, (CFTypeRef *)&positionValue) == kAXErrorSuccess && positionValue != NULL) {
                AXValueGetValue(positionValue, kAXValueTypeCGPoint, &position);
                CFRelease(positionValue);
        }
        if (AXUIElementCopyAttributeValue(window, kAXSizeAttribute, (CFTypeRef *)&sizeValue) == kAXErrorSuccess && sizeValue != NULL) {
                AXValueGetValue(sizeValue, kAXValueTypeCGSize, &size);
                CFRelease(sizeValue);
        }

        CGWindowID windowID = 0;
        _AXUIElementGetWindow(window, &windowID);
        result.window_id = (int64_t)windowID;

        CFRelease(window);
        CFRelease(axApp);

        result.x = position.x;
        result.y = position.y;
        result.width = size.width;
        result.height = size.height;
        result.status = 0;
        return result;
}
*/
import "C"

import (
	"context"
	"unsafe"
)

// DefaultWindowLookup resolves the frontmost window via the Accessibility
// API. It requires the same Accessibility trust as the input monitor.
func DefaultWindowLookup() WindowLookup {
	return macWindowLookup{}
}

type macWindowLookup struct{}

func (macWindowLookup) FrontmostWindow(ctx context.Context) (WindowInfo, error) {
	result := C.copyFrontmostWindow()
	defer func() {
		if result.app != nil {
			C.free(unsafe.Pointer(result.app))
		}
		if result.title != nil {
			C.free(unsafe.Pointer(result.title))
		}
	}()

	info := WindowInfo{}
	if result.app != nil {
		info.App = C.GoString(result.app)
	}

	switch int(result.status) {
	case 1:
		return info, ErrNoFrontmostApp
	case 2:
		return info, ErrNoWindows
	case 3:
		return info, ErrWindowInfoFailed
	}

	if result.title != nil {
		info.Title = C.GoString(result.title)
	}
	info.ID = int(result.window_id)
	info.Bounds = Rect{
		X:      float64(result.x),
		Y:      float64(result.y),
		Width:  float64(result.width),
		Height: float64(result.height),
	}
	return info, nil
}
