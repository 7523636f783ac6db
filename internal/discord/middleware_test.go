package discord

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func signedRequest(t *testing.T, priv ed25519.PrivateKey, timestamp string, body []byte) *http.Request {
	t.Helper()
	message := append([]byte(timestamp), body...)
	sig := ed25519.Sign(priv, message)

	req := httptest.NewRequest(http.MethodPost, "/api/discord/interaction", bytes.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)
	return req
}

func newVerifyRouter(publicKeyHex string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(VerifySignature(publicKeyHex))
	router.POST("/api/discord/interaction", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestVerifySignatureAccepted(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	router := newVerifyRouter(hex.EncodeToString(pub))

	body := []byte(`{"type":1}`)
	req := signedRequest(t, priv, "1700000000", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestVerifySignatureRejectsBadSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	_, otherPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	router := newVerifyRouter(hex.EncodeToString(pub))

	body := []byte(`{"type":1}`)
	req := signedRequest(t, otherPriv, "1700000000", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	router := newVerifyRouter(hex.EncodeToString(pub))

	signedBody := []byte(`{"type":1}`)
	req := signedRequest(t, priv, "1700000000", signedBody)
	req.Body = io.NopCloser(strings.NewReader(`{"type":2}`))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifySignatureMissingHeaders(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	router := newVerifyRouter(hex.EncodeToString(pub))

	req := httptest.NewRequest(http.MethodPost, "/api/discord/interaction", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestVerifySignatureMalformedPublicKey(t *testing.T) {
	router := newVerifyRouter("not-hex")

	req := httptest.NewRequest(http.MethodPost, "/api/discord/interaction", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Signature-Ed25519", "ab")
	req.Header.Set("X-Signature-Timestamp", "1700000000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
