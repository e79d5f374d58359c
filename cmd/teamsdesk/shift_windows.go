package main

import "golang.org/x/sys/windows"

var getAsyncKeyState = windows.NewLazySystemDLL("user32.dll").NewProc("GetAsyncKeyState")

const vkShift = 0x10

func isShiftHeld() bool {
	ret, _, _ := getAsyncKeyState.Call(vkShift)
	return ret&0x8000 != 0
}
