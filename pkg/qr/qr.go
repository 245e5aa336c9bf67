package qr

import (
	"encoding/json"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Payload is what a printed card QR encodes. The scanning app validates
// CardID plus Identity against the card's current token; only the current
// token is accepted, so reprinting after a regeneration is mandatory.
type Payload struct {
	Type      string `json:"type"`
	CardID    uint   `json:"card_id"`
	Identity  string `json:"identity"`
	Timestamp string `json:"timestamp"`
}

const payloadType = "PUNCHCARD_MERCHANT"

// imageSize is the rendered PNG edge length in pixels.
const imageSize = 400

// RenderPNG encodes the scan payload for a card as a QR PNG with high error
// correction, suitable for print.
func RenderPNG(cardID uint, identity string) ([]byte, error) {
	payload := Payload{
		Type:      payloadType,
		CardID:    cardID,
		Identity:  identity,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.High, imageSize)
}
