package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"absensi/internal/face"
	"absensi/internal/geofence"
	"absensi/internal/queue"
)

type fakeLedger struct {
	records map[string]*Record
	openOK  bool
	closeOK bool
	opened  []Record
	closed  int
}

func (f *fakeLedger) key(userID int64, date string) string {
	return fmt.Sprintf("%d/%s", userID, date)
}

func (f *fakeLedger) Get(_ context.Context, userID int64, date string) (*Record, error) {
	return f.records[f.key(userID, date)], nil
}

func (f *fakeLedger) Open(_ context.Context, rec Record) (bool, error) {
	f.opened = append(f.opened, rec)
	return f.openOK, nil
}

func (f *fakeLedger) Close(_ context.Context, userID int64, date, timeOut string, lat, lon float64, photoPath string) (bool, error) {
	f.closed++
	return f.closeOK, nil
}

type fakeZones struct{ zones []geofence.Zone }

func (f *fakeZones) Active(context.Context) ([]geofence.Zone, error) { return f.zones, nil }

type fakeProfiles struct{ enc face.Encoding }

func (f *fakeProfiles) ActiveEncoding(context.Context, int64) (face.Encoding, error) {
	return f.enc, nil
}

type fakeExtractor struct {
	encodings []face.Encoding
	err       error
}

func (f *fakeExtractor) Extract(context.Context, []byte) ([]face.Encoding, error) {
	return f.encodings, f.err
}

type fakePhotos struct {
	saved   []string
	removed []string
	saveErr error
}

func (f *fakePhotos) Save(userID int64, label string, _ []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := label + ".jpg"
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakePhotos) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakeAudit struct{ events []queue.AuditEvent }

func (f *fakeAudit) Publish(_ context.Context, evt queue.AuditEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func encoding(first float64) face.Encoding {
	e := make(face.Encoding, face.EncodingDim)
	e[0] = first
	return e
}

type fixture struct {
	svc      *Service
	ledger   *fakeLedger
	zones    *fakeZones
	profiles *fakeProfiles
	extract  *fakeExtractor
	photos   *fakePhotos
	audit    *fakeAudit
}

func newFixture() *fixture {
	f := &fixture{
		ledger:   &fakeLedger{records: map[string]*Record{}, openOK: true, closeOK: true},
		zones:    &fakeZones{zones: []geofence.Zone{{Latitude: -6.2, Longitude: 106.8, RadiusM: 100, Active: true}}},
		profiles: &fakeProfiles{enc: encoding(0)},
		extract:  &fakeExtractor{encodings: []face.Encoding{encoding(0)}},
		photos:   &fakePhotos{},
		audit:    &fakeAudit{},
	}
	f.svc = NewService(f.ledger, f.zones, f.profiles, f.extract, face.NewVerifier(0), f.photos, f.audit)
	f.svc.now = func() time.Time {
		return time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	}
	return f
}

func insideRequest() Request {
	return Request{UserID: 7, Latitude: -6.2, Longitude: 106.8, Filename: "selfie.jpg", Photo: []byte{0xff}}
}

func TestCheckInSuccess(t *testing.T) {
	f := newFixture()
	res, err := f.svc.CheckIn(context.Background(), insideRequest())
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if !res.OK || res.Code != CodeOK {
		t.Fatalf("got %+v, want ok", res)
	}
	if res.TimeIn != "08:30:00" {
		t.Errorf("time in = %q, want 08:30:00", res.TimeIn)
	}
	if res.Confidence != 100.0 {
		t.Errorf("confidence = %v, want 100", res.Confidence)
	}
	if len(f.ledger.opened) != 1 {
		t.Fatalf("opened %d records, want 1", len(f.ledger.opened))
	}
	if got := f.ledger.opened[0].Date; got != "2025-03-10" {
		t.Errorf("date = %q", got)
	}
	if len(f.audit.events) != 0 {
		t.Errorf("unexpected audit events: %+v", f.audit.events)
	}
}

func TestCheckInRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, req *Request)
		code  Code
	}{
		{"invalid coordinate", func(f *fixture, req *Request) {
			req.Latitude = 91
		}, CodeInvalidCoordinate},
		{"no face profile", func(f *fixture, req *Request) {
			f.profiles.enc = nil
		}, CodeFaceSetupRequired},
		{"outside all zones", func(f *fixture, req *Request) {
			req.Latitude, req.Longitude = -6.3, 106.9
		}, CodeOutsideArea},
		{"already checked in", func(f *fixture, req *Request) {
			f.ledger.records[f.ledger.key(req.UserID, "2025-03-10")] = &Record{TimeIn: "07:00:00"}
		}, CodeAlreadyCheckedIn},
		{"photo missing", func(f *fixture, req *Request) {
			req.Photo = nil
		}, CodePhotoRequired},
		{"photo extension rejected", func(f *fixture, req *Request) {
			req.Filename = "selfie.exe"
		}, CodeInvalidPhoto},
		{"no face detected", func(f *fixture, req *Request) {
			f.extract.encodings = nil
		}, CodeNoFaceDetected},
		{"multiple faces", func(f *fixture, req *Request) {
			f.extract.encodings = []face.Encoding{encoding(0), encoding(1)}
		}, CodeMultipleFaces},
		{"face mismatch", func(f *fixture, req *Request) {
			f.extract.encodings = []face.Encoding{encoding(3)}
		}, CodeFaceMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := insideRequest()
			tt.setup(f, &req)

			res, err := f.svc.CheckIn(context.Background(), req)
			if err != nil {
				t.Fatalf("check-in: %v", err)
			}
			if res.OK {
				t.Fatal("expected rejection")
			}
			if res.Code != tt.code {
				t.Errorf("code = %q, want %q", res.Code, tt.code)
			}
			if len(f.ledger.opened) != 0 {
				t.Error("ledger touched on rejected attempt")
			}
			if len(f.audit.events) != 1 {
				t.Fatalf("audit events = %d, want 1", len(f.audit.events))
			}
			if got := f.audit.events[0].Reason; got != string(tt.code) {
				t.Errorf("audit reason = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestCheckInRaceLoser(t *testing.T) {
	f := newFixture()
	f.ledger.openOK = false

	res, err := f.svc.CheckIn(context.Background(), insideRequest())
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if res.Code != CodeAlreadyCheckedIn {
		t.Errorf("code = %q, want %q", res.Code, CodeAlreadyCheckedIn)
	}
	if len(f.photos.removed) != 1 {
		t.Fatalf("removed %d photos, want 1", len(f.photos.removed))
	}
	if f.photos.removed[0] != f.photos.saved[0] {
		t.Errorf("removed %q, saved %q", f.photos.removed[0], f.photos.saved[0])
	}
}

func TestCheckInExtractorError(t *testing.T) {
	f := newFixture()
	f.extract.err = errors.New("encoder down")

	_, err := f.svc.CheckIn(context.Background(), insideRequest())
	if err == nil {
		t.Fatal("expected error from extractor failure")
	}
	if len(f.photos.saved) != 0 {
		t.Error("photo saved despite extractor failure")
	}
}

func TestCheckOutSuccess(t *testing.T) {
	f := newFixture()
	f.ledger.records[f.ledger.key(7, "2025-03-10")] = &Record{TimeIn: "08:30:00"}
	f.svc.now = func() time.Time {
		return time.Date(2025, 3, 10, 17, 15, 0, 0, time.UTC)
	}

	res, err := f.svc.CheckOut(context.Background(), insideRequest())
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if !res.OK {
		t.Fatalf("got %+v, want ok", res)
	}
	if res.Duration != "8 jam 45 menit" {
		t.Errorf("duration = %q, want 8 jam 45 menit", res.Duration)
	}
	if res.TimeIn != "08:30:00" || res.TimeOut != "17:15:00" {
		t.Errorf("times = %q..%q", res.TimeIn, res.TimeOut)
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	f := newFixture()
	res, err := f.svc.CheckOut(context.Background(), insideRequest())
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if res.Code != CodeNotCheckedIn {
		t.Errorf("code = %q, want %q", res.Code, CodeNotCheckedIn)
	}
	if f.ledger.closed != 0 {
		t.Error("ledger touched without an open record")
	}
}

func TestCheckOutTwice(t *testing.T) {
	out := "17:00:00"
	f := newFixture()
	f.ledger.records[f.ledger.key(7, "2025-03-10")] = &Record{TimeIn: "08:30:00", TimeOut: &out}

	res, err := f.svc.CheckOut(context.Background(), insideRequest())
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if res.Code != CodeAlreadyCheckedOut {
		t.Errorf("code = %q, want %q", res.Code, CodeAlreadyCheckedOut)
	}
}

func TestCheckOutRaceLoser(t *testing.T) {
	f := newFixture()
	f.ledger.records[f.ledger.key(7, "2025-03-10")] = &Record{TimeIn: "08:30:00"}
	f.ledger.closeOK = false

	res, err := f.svc.CheckOut(context.Background(), insideRequest())
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if res.Code != CodeAlreadyCheckedOut {
		t.Errorf("code = %q, want %q", res.Code, CodeAlreadyCheckedOut)
	}
	if len(f.photos.removed) != 1 {
		t.Errorf("removed %d photos, want 1", len(f.photos.removed))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in, out string
		want    string
	}{
		{"08:30:00", "17:15:00", "8 jam 45 menit"},
		{"09:00:00", "09:00:00", "0 jam 0 menit"},
		{"08:00:00", "08:59:59", "0 jam 59 menit"},
		{"10:00:00", "09:00:00", "0 jam 0 menit"},
	}
	for _, tt := range tests {
		got, err := FormatDuration(tt.in, tt.out)
		if err != nil {
			t.Fatalf("FormatDuration(%q, %q): %v", tt.in, tt.out, err)
		}
		if got != tt.want {
			t.Errorf("FormatDuration(%q, %q) = %q, want %q", tt.in, tt.out, got, tt.want)
		}
	}
}
