package domain

import (
	"errors"
	"testing"
)

func TestParseInstance_Valid(t *testing.T) {
	cases := map[string]Instance{
		"lemmy.ml":          "lemmy.ml",
		"  Lemmy.World ":    "lemmy.world",
		"sh.itjust.works":   "sh.itjust.works",
		"127.0.0.1:8536":    "127.0.0.1:8536",
		"localhost":         "localhost",
		"[::1]:8443":        "[::1]:8443",
		"[::1]":             "[::1]",
		"[2001:DB8::1]":     "[2001:db8::1]",
		"my-instance.co.uk": "my-instance.co.uk",
	}
	for in, want := range cases {
		got, err := ParseInstance(in)
		if err != nil {
			t.Errorf("ParseInstance(%q): unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseInstance(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseInstance_Invalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"https://lemmy.ml",
		"lemmy.ml/c/rust",
		"user@lemmy.ml",
		"lemmy.ml?x=1",
		"lemmy.ml#frag",
		"lem my.ml",
		"-bad.example",
		"bad-.example",
		"lemmy.ml:",
		"lemmy.ml:0",
		"lemmy.ml:70000",
		"lemmy.ml:http",
		"::1",
		"[::1",
		"[]",
		"[1.2.3.4]",
		"[1.2.3.4]:80",
		"[lemmy.ml]",
		"[::1]]",
		"evil.com%2f",
		"a..b",
	}
	for _, in := range cases {
		_, err := ParseInstance(in)
		if !errors.Is(err, ErrInvalidInstance) {
			t.Errorf("ParseInstance(%q): expected ErrInvalidInstance, got %v", in, err)
		}
	}
}

func TestInstanceErrorMessage(t *testing.T) {
	_, err := ParseInstance("bad host")
	var ie *InstanceError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InstanceError, got %T", err)
	}
	if ie.Value != "bad host" {
		t.Errorf("unexpected value %q", ie.Value)
	}
}
