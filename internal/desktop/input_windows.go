//go:build windows

package desktop

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// The SendInput struct family is a C union between MOUSEINPUT and
// KEYBDINPUT; Go has no union type, so inputRecord reserves enough
// trailing bytes to hold either variant and the two send helpers below
// overlay the field they need via unsafe.Pointer, the same trick most
// pure-Go Win32 wrappers use for this call.
type inputRecord struct {
	Type uint32
	_    uint32 // alignment padding before the union, matches the C ABI
	data [32]byte
}

type mouseInputData struct {
	Dx, Dy      int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInputData struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseEventFMove       = 0x0001
	mouseEventFLeftDown   = 0x0002
	mouseEventFLeftUp     = 0x0004
	mouseEventFRightDown  = 0x0008
	mouseEventFRightUp    = 0x0010
	mouseEventFWheel      = 0x0800
	mouseEventFAbsolute   = 0x8000

	keyEventFKeyUp     = 0x0002
	keyEventFUnicode   = 0x0004
	keyEventFExtended  = 0x0001
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procSendInput     = user32.NewProc("SendInput")
	procSetCursorPos  = user32.NewProc("SetCursorPos")
	procGetForeground = user32.NewProc("GetForegroundWindow")
	procSetForeground = user32.NewProc("SetForegroundWindow")
	procGetWindowText = user32.NewProc("GetWindowTextW")
	procFindWindow    = user32.NewProc("FindWindowW")
)

func sendInputs(records []inputRecord) int {
	if len(records) == 0 {
		return 0
	}
	n, _, _ := procSendInput.Call(
		uintptr(len(records)),
		uintptr(unsafe.Pointer(&records[0])),
		unsafe.Sizeof(records[0]),
	)
	return int(n)
}

func mouseRecord(flags uint32, mouseData uint32) inputRecord {
	var r inputRecord
	r.Type = inputMouse
	m := (*mouseInputData)(unsafe.Pointer(&r.data[0]))
	m.DwFlags = flags
	m.MouseData = mouseData
	return r
}

func keybdRecord(vk uint16, scan uint16, flags uint32) inputRecord {
	var r inputRecord
	r.Type = inputKeyboard
	k := (*keybdInputData)(unsafe.Pointer(&r.data[0]))
	k.WVk = vk
	k.WScan = scan
	k.DwFlags = flags
	return r
}

func setCursorPos(x, y int32) {
	procSetCursorPos.Call(uintptr(x), uintptr(y))
}

func getForegroundWindow() windows.HWND {
	h, _, _ := procGetForeground.Call()
	return windows.HWND(h)
}

func setForegroundWindow(hwnd windows.HWND) {
	procSetForeground.Call(uintptr(hwnd))
}

func getWindowText(hwnd windows.HWND) string {
	buf := make([]uint16, 512)
	n, _, _ := procGetWindowText.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

func findWindowByClass(class string) windows.HWND {
	classPtr, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return 0
	}
	h, _, _ := procFindWindow.Call(uintptr(unsafe.Pointer(classPtr)), 0)
	return windows.HWND(h)
}
