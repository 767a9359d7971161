// Package face holds the face verification decision logic and the stored
// face profile history. Encoding extraction itself is delegated to an
// external service via Client.
package face

import (
	"math"
)

// EncodingDim is the expected length of a face feature vector.
const EncodingDim = 128

// DefaultThreshold is the face-distance cutoff; lower is stricter.
const DefaultThreshold = 0.4

// Encoding is a fixed-dimension feature vector for one detected face.
type Encoding []float64

// Distance returns the Euclidean distance between two encodings.
// Mismatched lengths yield +Inf so they can never match.
func Distance(a, b Encoding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Outcome classifies a verification attempt.
type Outcome string

const (
	Matched               Outcome = "matched"
	NoMatch               Outcome = "no_match"
	NoFaceDetected        Outcome = "no_face_detected"
	MultipleFacesDetected Outcome = "multiple_faces"
	NoProfileOnFile       Outcome = "no_profile"
)

// Verification is the result of comparing candidate encodings against a
// stored profile.
type Verification struct {
	Outcome    Outcome
	Distance   float64
	Confidence float64
}

// Verifier decides match/no-match for a candidate image's encodings.
// It is a pure decision component and never mutates stored state.
type Verifier struct {
	Threshold float64
}

// NewVerifier returns a verifier with the given distance threshold;
// non-positive values fall back to DefaultThreshold.
func NewVerifier(threshold float64) *Verifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Verifier{Threshold: threshold}
}

// Verify applies the verification policy: exactly one candidate face,
// distance strictly below the threshold. A nil stored encoding means the
// user never enrolled and is reported as NoProfileOnFile, not an error.
func (v *Verifier) Verify(stored Encoding, candidates []Encoding) Verification {
	if len(stored) == 0 {
		return Verification{Outcome: NoProfileOnFile}
	}
	switch {
	case len(candidates) == 0:
		return Verification{Outcome: NoFaceDetected}
	case len(candidates) > 1:
		return Verification{Outcome: MultipleFacesDetected}
	}

	dist := Distance(stored, candidates[0])
	res := Verification{Distance: dist}
	if dist < v.Threshold {
		res.Outcome = Matched
		res.Confidence = math.Round((1-dist)*1000) / 10
	} else {
		res.Outcome = NoMatch
	}
	return res
}
