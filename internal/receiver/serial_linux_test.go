//go:build linux

package receiver

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestOpenSerial_NonBlockingFlags(t *testing.T) {
	orig := sysOpen
	t.Cleanup(func() { sysOpen = orig })

	var gotPath string
	var gotFlags int
	boom := errors.New("no device")
	sysOpen = func(path string, mode int, perm uint32) (int, error) {
		gotPath, gotFlags = path, mode
		return -1, boom
	}

	if _, err := openSerial("/dev/ttyACM0", 115200); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
	if gotPath != "/dev/ttyACM0" {
		t.Fatalf("path=%q", gotPath)
	}
	for _, flag := range []int{unix.O_RDWR, unix.O_NOCTTY, unix.O_NONBLOCK} {
		if gotFlags&flag != flag {
			t.Fatalf("flags=%#x missing %#x", gotFlags, flag)
		}
	}
}

func TestOpenSerial_UnsupportedBaud(t *testing.T) {
	orig := sysOpen
	t.Cleanup(func() { sysOpen = orig })
	sysOpen = func(string, int, uint32) (int, error) {
		t.Fatalf("open called for unsupported baud")
		return -1, nil
	}
	if _, err := openSerial("/dev/ttyACM0", 1234); err == nil {
		t.Fatalf("expected error")
	}
}
