package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const signerRequestTimeout = 15 * time.Second

// RemoteSigner implements TxSigner against an external signing service.
// The service holds the treasury key; this client only ships instruction
// payloads over and receives fully signed transactions back.
type RemoteSigner struct {
	endpoint  string
	publicKey string
	client    *http.Client
}

// NewRemoteSigner creates a signer client for the given endpoint. The
// public key identifies the remote signing identity and is used as the
// fee payer and authority in assembled instructions.
func NewRemoteSigner(endpoint, publicKey string) *RemoteSigner {
	return &RemoteSigner{
		endpoint:  endpoint,
		publicKey: publicKey,
		client:    &http.Client{Timeout: signerRequestTimeout},
	}
}

func (s *RemoteSigner) PublicKey() string {
	return s.publicKey
}

type signRequest struct {
	Transaction string `json:"transaction"` // base64 unsigned payload
	Blockhash   string `json:"blockhash"`
}

type signResponse struct {
	SignedTransaction string `json:"signed_transaction"`
	Error             string `json:"error,omitempty"`
}

// Sign posts the unsigned payload to the signing service and returns the
// base64 signed transaction.
func (s *RemoteSigner) Sign(ctx context.Context, unsignedTx []byte, blockhash string) (string, error) {
	body, err := json.Marshal(signRequest{
		Transaction: base64.StdEncoding.EncodeToString(unsignedTx),
		Blockhash:   blockhash,
	})
	if err != nil {
		return "", fmt.Errorf("marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/sign", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call signer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read signer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signer returned status %d: %s", resp.StatusCode, raw)
	}

	var decoded signResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode signer response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("signer refused: %s", decoded.Error)
	}
	if decoded.SignedTransaction == "" {
		return "", fmt.Errorf("signer returned empty transaction")
	}
	return decoded.SignedTransaction, nil
}
