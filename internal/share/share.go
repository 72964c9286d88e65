// Package share builds share links for posts and profiles and renders them
// as terminal QR codes.
package share

import (
	"errors"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Target is a service a link can be shared to.
type Target string

const (
	Facebook Target = "facebook"
	Twitter  Target = "twitter"
	WhatsApp Target = "whatsapp"
)

// Targets lists the supported share targets in display order.
var Targets = []Target{Facebook, Twitter, WhatsApp}

// tweetText accompanies links shared to Twitter.
const tweetText = "Check this out!"

// ErrUnknownTarget is returned for an unsupported share target.
var ErrUnknownTarget = errors.New("unknown share target")

// Links builds public URLs on the web frontend.
type Links struct {
	base string
}

// NewLinks validates the frontend base URL.
func NewLinks(frontendURL string) (*Links, error) {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, errors.New("frontend url must be absolute http(s)")
	}
	return &Links{base: strings.TrimRight(u.String(), "/")}, nil
}

// Post returns the public URL of a post.
func (l *Links) Post(postID string) string {
	return l.base + "/post/" + url.PathEscape(postID)
}

// Profile returns the public URL of a profile.
func (l *Links) Profile(userID string) string {
	return l.base + "/profile/" + url.PathEscape(userID)
}

// Intent returns the URL that shares link on target.
func Intent(target Target, link string) (string, error) {
	q := url.QueryEscape(link)
	switch target {
	case Facebook:
		return "https://www.facebook.com/sharer/sharer.php?u=" + q, nil
	case Twitter:
		return "https://twitter.com/intent/tweet?url=" + q + "&text=" + url.QueryEscape(tweetText), nil
	case WhatsApp:
		return "https://wa.me/?text=" + q, nil
	}
	return "", ErrUnknownTarget
}

// QR renders content as a compact QR code using Unicode half-block
// characters. Two bitmap rows become one terminal line.
func QR(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}
	bitmap := qr.Bitmap()

	var sb strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		sb.WriteString("  ")
		for x := range bitmap[y] {
			top := bitmap[y][x] // true = black module
			bot := y+1 < len(bitmap) && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█') // █
			case top:
				sb.WriteRune('▀') // ▀
			case bot:
				sb.WriteRune('▄') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}
