package keymap

import "testing"

func TestParseKeySingleChar(t *testing.T) {
	k, err := ParseKey("x")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if k.Ctrl || k.Alt || k.Code.Char != 'x' {
		t.Fatalf("k = %+v", k)
	}
}

func TestParseKeyPreservesCase(t *testing.T) {
	k, err := ParseKey("G")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if k.Code.Char != 'G' {
		t.Fatalf("Code.Char = %q, want 'G'", k.Code.Char)
	}
}

func TestParseKeyModifiers(t *testing.T) {
	k, err := ParseKey("ctrl+c")
	if err != nil || !k.Ctrl || k.Alt || k.Code.Char != 'c' {
		t.Fatalf("ParseKey(ctrl+c) = %+v, %v", k, err)
	}
	k, err = ParseKey("alt+ctrl+Delete")
	if err != nil || !k.Ctrl || !k.Alt || k.Code.Name != Delete {
		t.Fatalf("ParseKey(alt+ctrl+Delete) = %+v, %v", k, err)
	}
}

func TestParseKeyNamedCodesCaseInsensitive(t *testing.T) {
	for _, s := range []string{"ESC", "Esc", "esc"} {
		k, err := ParseKey(s)
		if err != nil || k.Code.Name != Esc {
			t.Fatalf("ParseKey(%q) = %+v, %v", s, k, err)
		}
	}
}

func TestParseKeyFunctionKeys(t *testing.T) {
	k, err := ParseKey("f5")
	if err != nil || k.Code.Name != "f5" {
		t.Fatalf("ParseKey(f5) = %+v, %v", k, err)
	}
	if _, err := ParseKey("f13"); err == nil {
		t.Fatalf("expected error for f13")
	}
	if _, err := ParseKey("f0"); err == nil {
		t.Fatalf("expected error for f0")
	}
}

func TestParseKeyInvalidModifier(t *testing.T) {
	if _, err := ParseKey("shift+g"); err == nil {
		t.Fatalf("expected error for shift modifier")
	}
}

func TestKeyChordRoundTrip(t *testing.T) {
	for _, s := range []string{"c", "ctrl+c", "alt+c", "ctrl+alt+c", "f5", "space", "esc"} {
		k, err := ParseKey(s)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", s, err)
		}
		got := k.String()
		k2, err := ParseKey(got)
		if err != nil {
			t.Fatalf("round trip ParseKey(%q): %v", got, err)
		}
		if k2 != k {
			t.Fatalf("round trip %q -> %q -> %+v != %+v", s, got, k2, k)
		}
	}
}
