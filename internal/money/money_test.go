package money

import (
	"testing"

	"github.com/govalues/decimal"
)

func TestQuantizeBankersRounding(t *testing.T) {
	tests := []struct {
		code  string
		input string
		want  string
	}{
		{"USD", "10.125", "10.12"},
		{"USD", "10.135", "10.14"},
		{"USD", "10.115", "10.12"},
		{"USD", "10.1251", "10.13"},
		{"USD", "10.10", "10.10"},
		{"USD", "-10.125", "-10.12"},
		{"JPY", "0.5", "0"},
		{"JPY", "1.5", "2"},
		{"KWD", "1.0005", "1.000"},
		{"KWD", "1.0015", "1.002"},
		{"XYZ", "3.555", "3.56"},
	}
	for _, tt := range tests {
		d := decimal.MustParse(tt.input)
		got := Quantize(tt.code, d)
		want := decimal.MustParse(tt.want)
		if got.Cmp(want) != 0 {
			t.Fatalf("Quantize(%s, %s) = %v, want %v", tt.code, tt.input, got, tt.want)
		}
	}
}

func TestToMinor(t *testing.T) {
	tests := []struct {
		code  string
		input string
		want  int64
	}{
		{"USD", "10.127", 1013},
		{"JPY", "1234.56", 1235},
		{"KWD", "10.1234", 10123},
		{"USD", "0", 0},
		{"USD", "-4.505", -450},
		{"USD", "19.99", 1999},
		{"CLP", "1500", 1500},
	}
	for _, tt := range tests {
		got, err := ToMinor(tt.code, decimal.MustParse(tt.input))
		if err != nil {
			t.Fatalf("ToMinor(%s, %s): %v", tt.code, tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ToMinor(%s, %s) = %d, want %d", tt.code, tt.input, got, tt.want)
		}
	}
}

func TestFromMinor(t *testing.T) {
	tests := []struct {
		code  string
		minor int64
		want  string
	}{
		{"USD", 1013, "10.13"},
		{"JPY", 1235, "1235"},
		{"KWD", 10123, "10.123"},
		{"USD", -1, "-0.01"},
		{"USD", 0, "0.00"},
	}
	for _, tt := range tests {
		got := FromMinor(tt.code, tt.minor)
		want := decimal.MustParse(tt.want)
		if got.Cmp(want) != 0 {
			t.Fatalf("FromMinor(%s, %d) = %v, want %v", tt.code, tt.minor, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{"10.127", "0.005", "99999.999", "-12.345", "0", "1234.56"}
	for _, code := range []string{"USD", "JPY", "KWD"} {
		for _, in := range inputs {
			q := Quantize(code, decimal.MustParse(in))
			minor, err := ToMinor(code, q)
			if err != nil {
				t.Fatalf("ToMinor(%s, %s): %v", code, in, err)
			}
			back := FromMinor(code, minor)
			if back.Cmp(q) != 0 {
				t.Fatalf("round trip %s %s: quantized %v, got back %v", code, in, q, back)
			}
		}
	}
}

func TestQuantizeFloatUsesDecimalStringRepresentation(t *testing.T) {
	// 0.1+0.2 is 0.30000000000000004 in binary floating point; the shortest
	// decimal representation conversion must not leak that error in.
	got, err := QuantizeFloat("USD", 0.1+0.2)
	if err != nil {
		t.Fatalf("QuantizeFloat: %v", err)
	}
	if want := decimal.MustParse("0.30"); got.Cmp(want) != 0 {
		t.Fatalf("QuantizeFloat(0.1+0.2) = %v, want 0.30", got)
	}
}

func TestParseQuantizeRejectsGarbage(t *testing.T) {
	if _, err := ParseQuantize("USD", "ten dollars"); err == nil {
		t.Fatal("expected parse error")
	}
}
