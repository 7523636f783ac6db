package discord

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerifySignature is the Ed25519 interaction-signature verification
// middleware. It reads X-Signature-Ed25519 and X-Signature-Timestamp,
// concatenates timestamp||body and verifies against the hex-decoded
// APPLICATION_PUBLIC_KEY. Invalid signatures are rejected with 401;
// malformed headers or an undecodable public key fail with 500.
func VerifySignature(publicKeyHex string) gin.HandlerFunc {
	publicKey, err := hex.DecodeString(publicKeyHex)

	return func(c *gin.Context) {
		if err != nil || len(publicKey) != ed25519.PublicKeySize {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		signature := c.GetHeader("X-Signature-Ed25519")
		timestamp := c.GetHeader("X-Signature-Timestamp")
		if signature == "" || timestamp == "" {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		sig, err := hex.DecodeString(signature)
		if err != nil || len(sig) != ed25519.SignatureSize {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		message := append([]byte(timestamp), body...)
		if !ed25519.Verify(publicKey, message, sig) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
