package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
)

type JWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

func SignDetachedJWS(payload []byte, privateKeyPEM []byte) (JWS, error) {
	hdr := map[string]any{
		"alg": "RS256",
		"typ": "JWT",
	}
	hb, _ := json.Marshal(hdr)
	protected := base64.RawURLEncoding.EncodeToString(hb)
	pl := base64.RawURLEncoding.EncodeToString(payload)

	priv, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil { return JWS{}, err }

	signingInput := protected + "." + pl
	h := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, h[:])
	if err != nil { return JWS{}, err }

	return JWS{
		Protected: protected,
		Payload:   pl,
		Signature: base64.RawURLEncoding.EncodeToString(sig),
	}, nil
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// ParseDetachedJWS decodes a serialized JWS from its compact-flattened
// JSON form, the shape flashgatectl writes for manifest signatures.
func ParseDetachedJWS(raw []byte) (JWS, error) {
	var jws JWS
	if err := json.Unmarshal(raw, &jws); err != nil {
		return JWS{}, err
	}
	if jws.Protected == "" || jws.Signature == "" {
		return JWS{}, errors.New("incomplete jws: missing protected header or signature")
	}
	return jws, nil
}

// VerifyDetachedJWS checks jws against payload using the given RSA
// public key certificate (PEM-encoded), recomputing the payload segment
// rather than trusting the one embedded in jws.
func VerifyDetachedJWS(jws JWS, payload []byte, certPEM []byte) error {
	pub, err := parseRSAPublicKeyFromCert(certPEM)
	if err != nil {
		return err
	}

	pl := base64.RawURLEncoding.EncodeToString(payload)
	signingInput := jws.Protected + "." + pl
	h := sha256.Sum256([]byte(signingInput))

	sig, err := base64.RawURLEncoding.DecodeString(jws.Signature)
	if err != nil {
		return err
	}
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig)
}

func parseRSAPublicKeyFromCert(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate does not contain an RSA public key")
	}
	return pub, nil
}
