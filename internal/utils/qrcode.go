package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// TicketQRContent is the text encoded in a ticket's QR code.  Door
// scanners split it on "|" to find the reservation, ticket and seat.
func TicketQRContent(reservationID, ticketID, sessionID uint64, row, seat int) string {
	return fmt.Sprintf("planetarium-ticket|reservation=%d|ticket=%d|session=%d|row=%d|seat=%d",
		reservationID, ticketID, sessionID, row, seat)
}

// GenerateQRCode renders content as a size x size PNG.
func GenerateQRCode(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}
