package panel

import "testing"

func TestToggleValue(t *testing.T) {
	for _, value := range []string{"on", "true", "1", "yes", " On "} {
		if !ToggleValue(value) {
			t.Fatalf("expected %q to be on", value)
		}
	}
	for _, value := range []string{"", "off", "false", "0", "bogus"} {
		if ToggleValue(value) {
			t.Fatalf("expected %q to be off", value)
		}
	}
}

func TestCleanSnowflake(t *testing.T) {
	if got := CleanSnowflake("123456789012345678"); got != "123456789012345678" {
		t.Fatalf("valid snowflake rejected: %q", got)
	}
	if got := CleanSnowflake(" 123456789012345678 "); got != "123456789012345678" {
		t.Fatalf("whitespace should be trimmed: %q", got)
	}
	for _, value := range []string{"", "abc", "123", "12345678901234567a", "1234567890123456789012345"} {
		if got := CleanSnowflake(value); got != "" {
			t.Fatalf("expected %q to collapse to empty, got %q", value, got)
		}
	}
}

func TestHasManagePermission(t *testing.T) {
	if !HasManagePermission("8") {
		t.Fatalf("administrator bit should pass")
	}
	if !HasManagePermission("32") {
		t.Fatalf("manage guild bit should pass")
	}
	if !HasManagePermission("2147483647") {
		t.Fatalf("full permission set should pass")
	}
	if HasManagePermission("2048") {
		t.Fatalf("send messages only should fail")
	}
	if HasManagePermission("") || HasManagePermission("abc") {
		t.Fatalf("malformed bitset should fail")
	}
}
