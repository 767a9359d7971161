package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"absensi/internal/face"
	"absensi/internal/geofence"
	"absensi/internal/metrics"
	"absensi/internal/photo"
	"absensi/internal/queue"
)

// Code identifies the outcome of a clock-in/out attempt.
type Code string

const (
	CodeOK                Code = "ok"
	CodeFaceSetupRequired Code = "face_setup_required"
	CodeOutsideArea       Code = "outside_area"
	CodeAlreadyCheckedIn  Code = "already_checked_in"
	CodeNotCheckedIn      Code = "not_checked_in"
	CodeAlreadyCheckedOut Code = "already_checked_out"
	CodePhotoRequired     Code = "photo_required"
	CodeInvalidPhoto      Code = "invalid_photo"
	CodeInvalidCoordinate Code = "invalid_coordinate"
	CodeNoFaceDetected    Code = "no_face_detected"
	CodeMultipleFaces     Code = "multiple_faces"
	CodeFaceMismatch      Code = "face_mismatch"
)

// Result is the structured outcome returned to the web layer.
type Result struct {
	OK         bool    `json:"success"`
	Code       Code    `json:"code"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence,omitempty"`
	TimeIn     string  `json:"time_in,omitempty"`
	TimeOut    string  `json:"time_out,omitempty"`
	Duration   string  `json:"duration,omitempty"`
}

// Ledger is the persistence surface the service needs.
type Ledger interface {
	Get(ctx context.Context, userID int64, date string) (*Record, error)
	Open(ctx context.Context, rec Record) (bool, error)
	Close(ctx context.Context, userID int64, date, timeOut string, lat, lon float64, photoPath string) (bool, error)
}

// ZoneSource supplies the active geofence zones.
type ZoneSource interface {
	Active(ctx context.Context) ([]geofence.Zone, error)
}

// ProfileSource supplies the user's active face encoding.
type ProfileSource interface {
	ActiveEncoding(ctx context.Context, userID int64) (face.Encoding, error)
}

// Extractor turns an image into face encodings.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]face.Encoding, error)
}

// PhotoStore persists and removes attendance photos.
type PhotoStore interface {
	Save(userID int64, label string, data []byte) (string, error)
	Remove(path string) error
}

// Publisher carries failed-attempt audit events to the worker.
type Publisher interface {
	Publish(ctx context.Context, evt queue.AuditEvent) error
}

// Service runs the clock-in/out state machine: geofence gate, face gate,
// then the ledger transition.
type Service struct {
	ledger   Ledger
	zones    ZoneSource
	profiles ProfileSource
	extract  Extractor
	verifier *face.Verifier
	photos   PhotoStore
	audit    Publisher
	now      func() time.Time
}

// NewService wires the service. A nil audit publisher disables
// failed-attempt auditing.
func NewService(ledger Ledger, zones ZoneSource, profiles ProfileSource, extract Extractor, verifier *face.Verifier, photos PhotoStore, audit Publisher) *Service {
	return &Service{
		ledger:   ledger,
		zones:    zones,
		profiles: profiles,
		extract:  extract,
		verifier: verifier,
		photos:   photos,
		audit:    audit,
		now:      time.Now,
	}
}

// Request is one clock-in/out attempt.
type Request struct {
	UserID    int64
	Latitude  float64
	Longitude float64
	Filename  string
	Photo     []byte
}

// CheckIn runs the clock-in flow. Preconditions are checked in order and the
// first failure wins with no side effects. Business rejections come back as
// a Result; only system faults return an error.
func (s *Service) CheckIn(ctx context.Context, req Request) (Result, error) {
	now := s.now()
	date, clock := now.Format("2006-01-02"), now.Format("15:04:05")

	if !geofence.ValidCoordinate(req.Latitude, req.Longitude) {
		return s.reject(ctx, req, "check_in", CodeInvalidCoordinate, "Koordinat tidak valid!"), nil
	}

	stored, err := s.profiles.ActiveEncoding(ctx, req.UserID)
	if err != nil {
		return Result{}, err
	}
	if stored == nil {
		return s.reject(ctx, req, "check_in", CodeFaceSetupRequired,
			"Anda harus setup Face Recognition terlebih dahulu di menu Profil!"), nil
	}

	zones, err := s.zones.Active(ctx)
	if err != nil {
		return Result{}, err
	}
	if !geofence.WithinAny(req.Latitude, req.Longitude, zones) {
		return s.reject(ctx, req, "check_in", CodeOutsideArea, "Anda berada di luar area absensi!"), nil
	}

	existing, err := s.ledger.Get(ctx, req.UserID, date)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		return s.reject(ctx, req, "check_in", CodeAlreadyCheckedIn, "Anda sudah absen hari ini!"), nil
	}

	verified, res := s.verifyPhoto(ctx, req, "check_in", stored)
	if !verified.ok {
		return res, verified.err
	}

	photoPath, err := s.photos.Save(req.UserID, "masuk", req.Photo)
	if err != nil {
		return Result{}, fmt.Errorf("save photo: %w", err)
	}

	rec := Record{
		UserID:      req.UserID,
		Date:        date,
		TimeIn:      clock,
		LatitudeIn:  req.Latitude,
		LongitudeIn: req.Longitude,
		PhotoIn:     photoPath,
	}
	inserted, err := s.openWithRetry(ctx, rec)
	if err != nil {
		if rmErr := s.photos.Remove(photoPath); rmErr != nil {
			log.Printf("orphan photo cleanup failed: %v", rmErr)
		}
		return Result{}, err
	}
	if !inserted {
		// Lost a race with a concurrent check-in for the same day.
		if rmErr := s.photos.Remove(photoPath); rmErr != nil {
			log.Printf("orphan photo cleanup failed: %v", rmErr)
		}
		return s.reject(ctx, req, "check_in", CodeAlreadyCheckedIn, "Anda sudah absen hari ini!"), nil
	}

	metrics.CheckIns.WithLabelValues(string(CodeOK)).Inc()
	return Result{
		OK:         true,
		Code:       CodeOK,
		Message:    fmt.Sprintf("Absen masuk berhasil! Wajah terverifikasi! Akurasi: %.1f%%", verified.confidence),
		Confidence: verified.confidence,
		TimeIn:     clock,
	}, nil
}

// CheckOut runs the clock-out flow and reports the worked duration.
func (s *Service) CheckOut(ctx context.Context, req Request) (Result, error) {
	now := s.now()
	date, clock := now.Format("2006-01-02"), now.Format("15:04:05")

	if !geofence.ValidCoordinate(req.Latitude, req.Longitude) {
		return s.reject(ctx, req, "check_out", CodeInvalidCoordinate, "Koordinat tidak valid!"), nil
	}

	stored, err := s.profiles.ActiveEncoding(ctx, req.UserID)
	if err != nil {
		return Result{}, err
	}
	if stored == nil {
		return s.reject(ctx, req, "check_out", CodeFaceSetupRequired,
			"Anda harus setup Face Recognition terlebih dahulu di menu Profil!"), nil
	}

	rec, err := s.ledger.Get(ctx, req.UserID, date)
	if err != nil {
		return Result{}, err
	}
	if rec == nil {
		return s.reject(ctx, req, "check_out", CodeNotCheckedIn, "Anda belum absen masuk hari ini!"), nil
	}
	if rec.TimeOut != nil {
		return s.reject(ctx, req, "check_out", CodeAlreadyCheckedOut, "Anda sudah absen keluar hari ini!"), nil
	}

	zones, err := s.zones.Active(ctx)
	if err != nil {
		return Result{}, err
	}
	if !geofence.WithinAny(req.Latitude, req.Longitude, zones) {
		return s.reject(ctx, req, "check_out", CodeOutsideArea, "Anda berada di luar area absensi!"), nil
	}

	verified, res := s.verifyPhoto(ctx, req, "check_out", stored)
	if !verified.ok {
		return res, verified.err
	}

	photoPath, err := s.photos.Save(req.UserID, "keluar", req.Photo)
	if err != nil {
		return Result{}, fmt.Errorf("save photo: %w", err)
	}

	updated, err := s.closeWithRetry(ctx, req.UserID, date, clock, req.Latitude, req.Longitude, photoPath)
	if err != nil {
		if rmErr := s.photos.Remove(photoPath); rmErr != nil {
			log.Printf("orphan photo cleanup failed: %v", rmErr)
		}
		return Result{}, err
	}
	if !updated {
		if rmErr := s.photos.Remove(photoPath); rmErr != nil {
			log.Printf("orphan photo cleanup failed: %v", rmErr)
		}
		return s.reject(ctx, req, "check_out", CodeAlreadyCheckedOut, "Anda sudah absen keluar hari ini!"), nil
	}

	duration, err := FormatDuration(rec.TimeIn, clock)
	if err != nil {
		log.Printf("duration computation failed for user %d: %v", req.UserID, err)
	}

	metrics.CheckOuts.WithLabelValues(string(CodeOK)).Inc()
	return Result{
		OK:         true,
		Code:       CodeOK,
		Message:    fmt.Sprintf("Absen keluar berhasil! Wajah terverifikasi! Akurasi: %.1f%%", verified.confidence),
		Confidence: verified.confidence,
		TimeIn:     rec.TimeIn,
		TimeOut:    clock,
		Duration:   duration,
	}, nil
}

type verifyState struct {
	ok         bool
	confidence float64
	err        error
}

// verifyPhoto enforces the photo + face-match preconditions shared by both
// flows. On rejection the second return value is the finished Result.
func (s *Service) verifyPhoto(ctx context.Context, req Request, action string, stored face.Encoding) (verifyState, Result) {
	if len(req.Photo) == 0 {
		return verifyState{}, s.reject(ctx, req, action, CodePhotoRequired, "Foto wajib diperlukan untuk verifikasi identitas!")
	}
	if !photo.AllowedFile(req.Filename) {
		return verifyState{}, s.reject(ctx, req, action, CodeInvalidPhoto, "File foto tidak valid!")
	}

	candidates, err := s.extract.Extract(ctx, req.Photo)
	if err != nil {
		return verifyState{err: fmt.Errorf("extract encodings: %w", err)}, Result{}
	}

	v := s.verifier.Verify(stored, candidates)
	switch v.Outcome {
	case face.Matched:
		return verifyState{ok: true, confidence: v.Confidence}, Result{}
	case face.NoFaceDetected:
		return verifyState{}, s.reject(ctx, req, action, CodeNoFaceDetected, "Wajah tidak terdeteksi.")
	case face.MultipleFacesDetected:
		return verifyState{}, s.reject(ctx, req, action, CodeMultipleFaces, "Terdeteksi lebih dari satu wajah!")
	default:
		return verifyState{}, s.reject(ctx, req, action, CodeFaceMismatch, "Wajah tidak dikenali.")
	}
}

// reject records a failed attempt (metrics plus queued audit event) and
// builds the rejection result. Audit publishing is best effort.
func (s *Service) reject(ctx context.Context, req Request, action string, code Code, message string) Result {
	if action == "check_in" {
		metrics.CheckIns.WithLabelValues(string(code)).Inc()
	} else {
		metrics.CheckOuts.WithLabelValues(string(code)).Inc()
	}
	if s.audit != nil {
		evt := queue.AuditEvent{
			ID:         uuid.NewString(),
			UserID:     req.UserID,
			Action:     action,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Reason:     string(code),
			OccurredAt: s.now(),
		}
		if err := s.audit.Publish(ctx, evt); err != nil {
			log.Printf("audit publish failed: %v", err)
		}
	}
	return Result{Code: code, Message: message}
}

func (s *Service) openWithRetry(ctx context.Context, rec Record) (bool, error) {
	ok, err := s.ledger.Open(ctx, rec)
	if err != nil && transient(err) {
		ok, err = s.ledger.Open(ctx, rec)
	}
	return ok, err
}

func (s *Service) closeWithRetry(ctx context.Context, userID int64, date, clock string, lat, lon float64, photoPath string) (bool, error) {
	ok, err := s.ledger.Close(ctx, userID, date, clock, lat, lon, photoPath)
	if err != nil && transient(err) {
		ok, err = s.ledger.Close(ctx, userID, date, clock, lat, lon, photoPath)
	}
	return ok, err
}

// transient reports whether the storage error is a serialization failure or
// deadlock worth one retry.
func transient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// FormatDuration renders the worked time between two HH:MM:SS clock values
// on the same day, e.g. "8 jam 45 menit".
func FormatDuration(timeIn, timeOut string) (string, error) {
	in, err := time.Parse("15:04:05", timeIn)
	if err != nil {
		return "", err
	}
	out, err := time.Parse("15:04:05", timeOut)
	if err != nil {
		return "", err
	}
	mins := int(out.Sub(in).Minutes())
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%d jam %d menit", mins/60, mins%60), nil
}
