package btcmarkets

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"

	"coinbridge/trading"
)

// signer builds the BM-AUTH authentication material for private
// endpoints. It is a pure function over its inputs; the nonce is supplied
// by the caller.
type signer struct {
	apiKey string
	// secret is the base64-encoded private key as issued by the venue.
	secret string
}

// check verifies credentials are usable. It runs before any network
// attempt so a misconfigured client fails fast.
func (s signer) check() error {
	if s.apiKey == "" || s.secret == "" {
		return trading.NewError(trading.ErrCredentialsMissing, "", "api key and secret are required for private endpoints")
	}
	if _, err := base64.StdEncoding.DecodeString(s.secret); err != nil {
		return trading.NewError(trading.ErrCredentialsMissing, "", "api secret is not valid base64")
	}
	return nil
}

// sign returns the base64 HMAC-SHA512 signature over
// method + path + nonce + body using the decoded secret. For GET and
// DELETE the caller appends the key-sorted, percent-encoded query string
// to path before signing, so any query change changes the signature; body
// is only present for methods that carry one.
func (s signer) sign(method, path, nonce, body string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(s.secret)
	if err != nil {
		return "", trading.NewError(trading.ErrCredentialsMissing, "", "api secret is not valid base64")
	}
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(method + path + nonce + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
