// utils/share.go
package utils

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// SocialShares holds prefilled share URLs for a cause link.
type SocialShares struct {
	Twitter  string `json:"twitter"`
	Facebook string `json:"facebook"`
	WhatsApp string `json:"whatsapp"`
}

// CauseShareLink builds the public frontend link for a cause.
func CauseShareLink(frontendURL, causeID, slug string) string {
	link := fmt.Sprintf("%s/cause/%s", frontendURL, url.PathEscape(causeID))
	if slug != "" {
		link += "?s=" + url.QueryEscape(slug)
	}
	return link
}

// QRCodeDataURL renders link as a PNG QR code data URL.
func QRCodeDataURL(link string) (string, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func BuildSocialShares(link, title string) SocialShares {
	text := "Support this cause: " + title
	return SocialShares{
		Twitter:  fmt.Sprintf("https://twitter.com/intent/tweet?url=%s&text=%s", url.QueryEscape(link), url.QueryEscape(text)),
		Facebook: fmt.Sprintf("https://www.facebook.com/sharer/sharer.php?u=%s", url.QueryEscape(link)),
		WhatsApp: fmt.Sprintf("https://wa.me/?text=%s", url.QueryEscape(text+" "+link)),
	}
}
