// Package shopifytest signs webhook bodies and OAuth redirects the way the
// platform does, for tests.
package shopifytest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
)

// SignBody returns the X-Shopify-Hmac-Sha256 header value for body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignQuery adds the hmac parameter to an OAuth callback query.
func SignQuery(secret string, q url.Values) url.Values {
	signed := url.Values{}
	for k, v := range q {
		if k != "hmac" {
			signed[k] = v
		}
	}
	message, _ := url.QueryUnescape(signed.Encode())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	signed.Set("hmac", hex.EncodeToString(mac.Sum(nil)))
	return signed
}
