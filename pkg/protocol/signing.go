package protocol

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// signedFields is the part of a Command covered by its signature.
type signedFields struct {
	Command string         `json:"command"`
	Payload map[string]any `json:"payload"`
	Source  string         `json:"source"`
}

func commandMAC(cmd *Command, secret string) ([]byte, error) {
	canonical, err := json.Marshal(signedFields{
		Command: cmd.Command,
		Payload: cmd.Payload,
		Source:  cmd.Source,
	})
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// SignCommand sets cmd.Signature to the hex HMAC-SHA256 of the command.
// An empty secret leaves the command unsigned.
func SignCommand(cmd *Command, secret string) error {
	if secret == "" {
		return nil
	}
	sum, err := commandMAC(cmd, secret)
	if err != nil {
		return err
	}
	cmd.Signature = hex.EncodeToString(sum)
	return nil
}

// VerifyCommand reports whether cmd carries a valid signature for secret.
// With an empty secret every command is accepted; with a secret, unsigned
// commands are rejected.
func VerifyCommand(cmd *Command, secret string) bool {
	if secret == "" {
		return true
	}
	if cmd.Signature == "" {
		return false
	}
	sig, err := hex.DecodeString(cmd.Signature)
	if err != nil {
		return false
	}
	sum, err := commandMAC(cmd, secret)
	if err != nil {
		return false
	}
	return hmac.Equal(sum, sig)
}
