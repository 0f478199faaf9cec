package num

import "testing"

func TestAddSubRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"0.1", "0.2"},
		{"0.42570126", "0.0005"},
		{"-5.5", "1.25"},
		{"123456789.123456789", "0.000000001"},
		{"500", "0"},
	}
	for _, p := range pairs {
		sum, err := Add(p[0], p[1])
		if err != nil {
			t.Fatalf("add(%s,%s): %v", p[0], p[1], err)
		}
		back, err := Sub(sum, p[1])
		if err != nil {
			t.Fatalf("sub(%s,%s): %v", sum, p[1], err)
		}
		eq, err := Equal(back, p[0])
		if err != nil {
			t.Fatalf("equal: %v", err)
		}
		if !eq {
			t.Errorf("round trip for %s via %s gave %s", p[0], p[1], back)
		}
	}
}

func TestCmpIgnoresRepresentation(t *testing.T) {
	c, err := Cmp("1.0", "1.00")
	if err != nil {
		t.Fatalf("cmp: %v", err)
	}
	if c != 0 {
		t.Errorf("expected 1.0 == 1.00, got %d", c)
	}
	c, err = Cmp("0.3751", "0.377")
	if err != nil {
		t.Fatalf("cmp: %v", err)
	}
	if c != -1 {
		t.Errorf("expected 0.3751 < 0.377, got %d", c)
	}
}

func TestMul(t *testing.T) {
	got, err := Mul("0.1", "0.2")
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if got != "0.02" {
		t.Errorf("0.1*0.2 = %s, want 0.02", got)
	}
}

func TestDivScale(t *testing.T) {
	got, err := Div("1", "3", 8)
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	if got != "0.33333333" {
		t.Errorf("1/3 at 8 places = %s", got)
	}
	if _, err := Div("1", "0", 2); err == nil {
		t.Errorf("expected error for division by zero")
	}
}

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		value string
		tick  string
		mode  RoundingMode
		want  string
	}{
		{"0.376911", "0.0001", RoundNearest, "0.3769"},
		{"0.376950", "0.0001", RoundNearest, "0.377"},
		{"1.039", "0.01", RoundDown, "1.03"},
		{"1.030", "0.01", RoundDown, "1.03"},
		{"14409.456", "1", RoundDown, "14409"},
	}
	for _, tc := range tests {
		got, err := RoundToTick(tc.value, tc.tick, tc.mode)
		if err != nil {
			t.Fatalf("round %s to %s: %v", tc.value, tc.tick, err)
		}
		eq, err := Equal(got, tc.want)
		if err != nil {
			t.Fatalf("equal: %v", err)
		}
		if !eq {
			t.Errorf("round %s to %s = %s, want %s", tc.value, tc.tick, got, tc.want)
		}
	}
	if _, err := RoundToTick("1", "0", RoundDown); err == nil {
		t.Errorf("expected error for zero tick")
	}
}

func TestTickFromDecimals(t *testing.T) {
	tests := map[string]string{
		"0": "1",
		"2": "0.01",
		"8": "0.00000001",
	}
	for in, want := range tests {
		got, err := TickFromDecimals(in)
		if err != nil {
			t.Fatalf("tick from %s: %v", in, err)
		}
		if got != want {
			t.Errorf("tick from %s = %s, want %s", in, got, want)
		}
	}
	if _, err := TickFromDecimals("x"); err == nil {
		t.Errorf("expected error for non-numeric count")
	}
	if _, err := TickFromDecimals("-1"); err == nil {
		t.Errorf("expected error for negative count")
	}
}

func TestInvalidInput(t *testing.T) {
	if _, err := Add("abc", "1"); err == nil {
		t.Errorf("expected error for invalid decimal")
	}
	if _, err := Sub("1", ""); err == nil {
		t.Errorf("expected error for empty decimal")
	}
}
