package whatsapp

import (
	"fmt"

	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

const qrPNGPath = "whatsapp_qr.png"

// DisplayQR renders the pairing code as a PNG next to the binary and prints
// its path, so the salon owner can scan it from the phone.
func DisplayQR(code string) {
	if err := qrcode.WriteFile(code, qrcode.Medium, 512, qrPNGPath); err != nil {
		log.Error().Err(err).Msg("could not save pairing QR code PNG")
		return
	}
	fmt.Printf("%s\n", qrPNGPath)
}
