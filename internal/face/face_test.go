package face

import (
	"math"
	"testing"
)

func encodingWithFirst(v float64) Encoding {
	enc := make(Encoding, EncodingDim)
	enc[0] = v
	return enc
}

func TestDistance(t *testing.T) {
	a := encodingWithFirst(0)
	b := encodingWithFirst(0.3)

	if d := Distance(a, a); d != 0 {
		t.Errorf("identical encodings: distance %f, want 0", d)
	}
	if d := Distance(a, b); math.Abs(d-0.3) > 1e-9 {
		t.Errorf("distance %f, want 0.3", d)
	}
	if d := Distance(a, Encoding{1, 2}); !math.IsInf(d, 1) {
		t.Errorf("mismatched lengths: distance %f, want +Inf", d)
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier(0)
	if v.Threshold != DefaultThreshold {
		t.Fatalf("threshold %f, want %f", v.Threshold, DefaultThreshold)
	}
	stored := encodingWithFirst(0)

	tests := []struct {
		name       string
		stored     Encoding
		candidates []Encoding
		want       Outcome
	}{
		{"no profile", nil, []Encoding{stored}, NoProfileOnFile},
		{"no face", stored, nil, NoFaceDetected},
		{"two faces", stored, []Encoding{stored, stored}, MultipleFacesDetected},
		{"identical face", stored, []Encoding{encodingWithFirst(0)}, Matched},
		{"near face", stored, []Encoding{encodingWithFirst(0.39)}, Matched},
		{"at threshold", stored, []Encoding{encodingWithFirst(0.4)}, NoMatch},
		{"far face", stored, []Encoding{encodingWithFirst(0.9)}, NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Verify(tt.stored, tt.candidates)
			if got.Outcome != tt.want {
				t.Errorf("outcome %s, want %s", got.Outcome, tt.want)
			}
		})
	}
}

func TestVerifyConfidence(t *testing.T) {
	v := NewVerifier(DefaultThreshold)
	stored := encodingWithFirst(0)

	res := v.Verify(stored, []Encoding{encodingWithFirst(0)})
	if res.Outcome != Matched {
		t.Fatalf("outcome %s, want matched", res.Outcome)
	}
	if res.Confidence != 100.0 {
		t.Errorf("confidence %f, want 100.0", res.Confidence)
	}

	res = v.Verify(stored, []Encoding{encodingWithFirst(0.25)})
	if res.Confidence != 75.0 {
		t.Errorf("confidence %f, want 75.0", res.Confidence)
	}
}
