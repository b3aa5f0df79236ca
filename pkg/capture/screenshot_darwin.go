//go:build darwin

package capture

/*
#cgo darwin CFLAGS: -x objective-c -fobjc-arc
#cgo darwin LDFLAGS: -framework Foundation -framework CoreGraphics -framework ImageIO
#import <Foundation/Foundation.h>
#import <CoreGraphics/CoreGraphics.h>
#import <ImageIO/ImageIO.h>
#include <stdlib.h>
#include <string.h>

struct WindowShot {
        CFDataRef data;
        char *err;
};

static struct WindowShot captureWindowImage(int64_t windowID) {
        struct WindowShot result = {0};
        CGImageRef image = CGWindowListCreateImage(CGRectNull,
                                                   kCGWindowListOptionIncludingWindow,
                                                   (CGWindowID)windowID,
                                                   kCGWindowImageBoundsIgnoreFraming);
        if (image == NULL) {
                result.err = strdup("window image capture failed");
                return result;
        }
        CFMutableDataRef data = CFDataCreateMutable(NULL, 0);
        if (data == NULL) {
                CGImageRelease(image);
                result.err = strdup("failed to allocate image buffer");
                return result;
        }
        CGImageDestinationRef dest = CGImageDestinationCreateWithData(data, CFSTR("public.png"), 1, NULL);
        if (dest == NULL) {
                CFRelease(data);
                CGImageRelease(image);
                result.err = strdup("failed to create image destination");
                return result;
        }
        CGImageDestinationAddImage(dest, image, NULL);
        if (!CGImageDestinationFinalize(dest)) {
                CFRelease(dest);
                CFRelease(data);
                CGImageRelease(image);
                result.err = strdup("failed to finalize image");
                return result;
        }
        CFRelease(dest);
        CGImageRelease(image);
        result.data = data;
        return result;
}

static const UInt8 *shotBytes(CFDataRef data) {
        return CFDataGetBytePtr(data);
}

static CFIndex shotLength(CFDataRef data) {
        return CFDataGetLength(data);
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// DefaultScreenshotCapture grabs single-window PNGs via CGWindowList. It
// requires the macOS screen recording permission.
func DefaultScreenshotCapture() ScreenshotCapture {
	return macScreenshotCapture{}
}

type macScreenshotCapture struct{}

func (macScreenshotCapture) CaptureWindow(ctx context.Context, windowID int, outputPath string) error {
	result := C.captureWindowImage(C.int64_t(windowID))
	if result.err != nil {
		defer C.free(unsafe.Pointer(result.err))
		return errors.New(C.GoString(result.err))
	}
	if result.data == nil {
		return errors.New("no image data returned from capture")
	}
	defer C.CFRelease(C.CFTypeRef(result.data))

	length := C.shotLength(result.data)
	png := C.GoBytes(unsafe.Pointer(C.shotBytes(result.data)), C.int(length))
	if err := os.WriteFile(outputPath, png, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
