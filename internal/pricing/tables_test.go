package pricing

import "testing"

func TestLookupStripsAZLetter(t *testing.T) {
	rates, err := Lookup("us-east-1b")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rates.HeadHourly != 0.026 {
		t.Errorf("HeadHourly = %v, want 0.026", rates.HeadHourly)
	}
}

func TestLookupUnknownRegion(t *testing.T) {
	_, err := Lookup("mars-central-1a")
	if _, ok := err.(ErrUnknownRegion); !ok {
		t.Errorf("Lookup unknown region error = %v, want ErrUnknownRegion", err)
	}
}
