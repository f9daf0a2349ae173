package flashstring

import "testing"

func TestParseVerifyPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    VerifyPolicy
		wantErr bool
	}{
		{"", VerifyDegrade, false},
		{"degrade", VerifyDegrade, false},
		{"TRUST", VerifyTrust, false},
		{"release", VerifyTrust, false},
		{" failfast ", VerifyFailFast, false},
		{"fail-fast", VerifyFailFast, false},
		{"debug", VerifyFailFast, false},
		{"abort", VerifyDegrade, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVerifyPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetVerifyPolicy(t *testing.T) {
	prev := SetVerifyPolicy(VerifyTrust)
	defer SetVerifyPolicy(prev)

	if CurrentVerifyPolicy() != VerifyTrust {
		t.Errorf("CurrentVerifyPolicy() = %v", CurrentVerifyPolicy())
	}
	if got := SetVerifyPolicy(VerifyFailFast); got != VerifyTrust {
		t.Errorf("SetVerifyPolicy returned %v, want trust", got)
	}
	if VerifyFailFast.String() != "failfast" {
		t.Errorf("String() = %q", VerifyFailFast.String())
	}
}
