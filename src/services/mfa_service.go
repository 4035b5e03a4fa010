package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	mfaIssuer = "TradeOps"
	mfaQRSize = 200
)

// Enrollment is a freshly generated TOTP secret and its QR code as base64 PNG.
type Enrollment struct {
	Secret string
	QRCode string
}

// MFAService issues and checks the operator's TOTP codes. Codes from the
// previous and next 30 second step are accepted to absorb clock drift.
type MFAService struct {
	issuer string
	now    func() time.Time
}

func NewMFAService() *MFAService {
	return &MFAService{issuer: mfaIssuer, now: time.Now}
}

func (s *MFAService) Enroll(account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	img, err := key.Image(mfaQRSize, mfaQRSize)
	if err != nil {
		return nil, fmt.Errorf("render totp qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode totp qr code: %w", err)
	}
	return &Enrollment{
		Secret: key.Secret(),
		QRCode: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Verify reports whether code is valid for secret right now.
func (s *MFAService) Verify(secret, code string) bool {
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
