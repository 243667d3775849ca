package cli

import "testing"

func TestCheckConfigKey(t *testing.T) {
	for _, key := range configKeys {
		if err := checkConfigKey(key); err != nil {
			t.Errorf("checkConfigKey(%q) = %v", key, err)
		}
	}
	if err := checkConfigKey("catalog_url"); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "***",
		"ghp_12345678": "********5678",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
