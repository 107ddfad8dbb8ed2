package registration

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/verification_email.html
var templateFS embed.FS

var verificationEmail = template.Must(template.ParseFS(templateFS, "templates/verification_email.html"))

type verificationEmailData struct {
	Brand     string
	Code      string
	ExpiresIn string
}

func renderVerificationEmail(brand, code string, ttl time.Duration) (subject, body string, err error) {
	var buf bytes.Buffer
	data := verificationEmailData{
		Brand:     brand,
		Code:      code,
		ExpiresIn: fmt.Sprintf("%d minutes", int(ttl.Minutes())),
	}
	if err := verificationEmail.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}
	return brand + " Verification Code", buf.String(), nil
}
