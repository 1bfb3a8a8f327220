// Smartnotes notification receiver example
//
// A minimal endpoint that accepts and verifies note notifications sent when
// NOTIFY_WEBHOOK_URL is configured.
//
// Usage:
//
//	export NOTIFY_WEBHOOK_SECRET="your_shared_secret"
//	go run main.go
//
// Then start smartnotes with APP_ENV=development and
// NOTIFY_WEBHOOK_URL=http://localhost:9000/notify.
package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const replayWindow = 5 * time.Minute

// Notification is the JSON body posted by smartnotes.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

func main() {
	secret := os.Getenv("NOTIFY_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("NOTIFY_WEBHOOK_SECRET environment variable is required")
	}

	http.HandleFunc("/notify", notifyHandler(secret))
	http.HandleFunc("/health", healthHandler)

	log.Println("Listening on :9000, endpoint http://localhost:9000/notify")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func notifyHandler(secret string) http.HandlerFunc {
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
	)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if !verifySignature(r.Header.Get("X-Smartnotes-Signature"), body, secret) {
			log.Println("rejected: bad or missing signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		var n Notification
		if err := json.Unmarshal(body, &n); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// Retries reuse the delivery ID.
		deliveryID := r.Header.Get("X-Smartnotes-Delivery-Id")
		mu.Lock()
		duplicate := seen[deliveryID]
		seen[deliveryID] = true
		mu.Unlock()
		if duplicate {
			w.WriteHeader(http.StatusOK)
			return
		}

		log.Printf("notification %s at %s: %s", n.ID, n.SentAt.Format(time.RFC3339), n.Message)
		w.WriteHeader(http.StatusOK)
	}
}

// verifySignature checks a "t=<unix>,v1=<hex hmac>" header. The signed
// payload is "<unix>.<body>".
func verifySignature(header string, body []byte, secret string) bool {
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return false
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(ts, 0))
	if age > replayWindow || age < -replayWindow {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
