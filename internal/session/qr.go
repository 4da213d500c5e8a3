package session

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// Renderer turns a raw pairing code into the artifact handed to clients.
type Renderer func(code string) (string, error)

// RenderDataURL encodes code as a PNG QR image inside a data URL.
func RenderDataURL(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty pairing code", ErrPairingArtifact)
	}
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPairingArtifact, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
