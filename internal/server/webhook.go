package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/clientscout/internal/store"
)

// webhookTolerance bounds how old a signed payload may be.
const webhookTolerance = 5 * time.Minute

// checkoutEvent is the slice of the checkout provider's event payload
// we care about.
type checkoutEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			CustomerEmail   string `json:"customer_email"`
			CustomerDetails struct {
				Email string `json:"email"`
			} `json:"customer_details"`
		} `json:"object"`
	} `json:"data"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read body")
		return
	}

	if err := verifySignature(r.Header.Get("Checkout-Signature"), body, s.webhookSecret, time.Now()); err != nil {
		zap.L().Warn("webhook signature rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var evt checkoutEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	if evt.Type == "checkout.session.completed" {
		email := evt.Data.Object.CustomerEmail
		if email == "" {
			email = evt.Data.Object.CustomerDetails.Email
		}
		if email != "" {
			if err := s.store.UpgradeTier(r.Context(), email, store.TierPaid); err != nil {
				zap.L().Error("tier upgrade failed", zap.String("email", email), zap.Error(err))
			} else {
				zap.L().Info("tier upgraded", zap.String("email", email))
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// verifySignature checks a header of the form "t=<unix>,v1=<hex>"
// against HMAC-SHA256(secret, "<unix>.<payload>").
func verifySignature(header string, payload []byte, secret string, now time.Time) error {
	if secret == "" {
		return eris.New("no webhook secret configured")
	}
	if header == "" {
		return eris.New("missing signature header")
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return eris.New("malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return eris.Wrap(err, "bad timestamp")
	}
	age := now.Sub(time.Unix(unix, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return eris.New("timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(want), []byte(sig)) {
			return nil
		}
	}
	return eris.New("signature mismatch")
}
