package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedSignatureHeader is returned when the header cannot be parsed.
	ErrMalformedSignatureHeader = errors.New("malformed signature header")
)

// DefaultReplayWindow is the default replay protection window.
const DefaultReplayWindow = 5 * time.Minute

// GenerateSignature creates an HMAC-SHA256 signature over "{timestamp}.{payload}".
func GenerateSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader formats the signature header value: "t={timestamp},v1={signature}".
func SignatureHeader(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, GenerateSignature(secret, timestamp, payload))
}

// VerifySignatureHeader checks a "t=...,v1=..." header against payload.
func VerifySignatureHeader(secret, header string, payload []byte, replayWindow time.Duration) error {
	var (
		timestamp int64
		signature string
		err       error
	)

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformedSignatureHeader
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrMalformedSignatureHeader
			}
		case "v1":
			signature = value
		}
	}
	if timestamp == 0 || signature == "" {
		return ErrMalformedSignatureHeader
	}

	if abs(time.Now().Unix()-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := GenerateSignature(secret, timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
