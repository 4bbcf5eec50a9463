package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	SignupSubject = "Confirm your MotivateM3 account"
	ResendSubject = "Resend Verification - MotivateM3"
)

// VerificationData fills the verification email templates.
type VerificationData struct {
	FirstName string
	Link      string
	Code      string
	ValidFor  string
}

var signupHTML = template.Must(template.New("signup").Parse(`<p>Hi {{.FirstName}},</p>
<p>Thanks for registering. You can verify your account in two ways:</p>
<p><a href="{{.Link}}">Click this link</a> (expires in {{.ValidFor}})<br>
or enter this verification code into the app: <b>{{.Code}}</b></p>
<p>If you didn't sign up, ignore this email.</p>
<p>- MotivateM3 Team</p>
`))

var signupText = texttemplate.Must(texttemplate.New("signup").Parse(`Hi {{.FirstName}},

Thanks for registering. You can verify your account in two ways:

Open this link (expires in {{.ValidFor}}): {{.Link}}
or enter this verification code into the app: {{.Code}}

If you didn't sign up, ignore this email.

- MotivateM3 Team
`))

var resendHTML = template.Must(template.New("resend").Parse(`<p>Hi {{.FirstName}},</p>
<p>Here is your new verification link (valid for {{.ValidFor}}): <a href="{{.Link}}">Verify Email</a><br>
Or enter this code in the app: <b>{{.Code}}</b></p>
<p>- MotivateM3 Team</p>
`))

var resendText = texttemplate.Must(texttemplate.New("resend").Parse(`Hi {{.FirstName}},

Here is your new verification link (valid for {{.ValidFor}}): {{.Link}}
Or enter this code in the app: {{.Code}}

- MotivateM3 Team
`))

func SignupMessage(to string, data VerificationData) (Message, error) {
	return render(to, SignupSubject, signupHTML, signupText, data)
}

func ResendMessage(to string, data VerificationData) (Message, error) {
	return render(to, ResendSubject, resendHTML, resendText, data)
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(to, subject string, html, text executor, data VerificationData) (Message, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := text.Execute(&t, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	return Message{
		To:      to,
		Subject: subject,
		HTML:    h.String(),
		Text:    strings.TrimSpace(t.String()),
	}, nil
}

// ValidFor renders a code lifetime for email copy, e.g. "1 hour" or "15 minutes".
func ValidFor(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	return plural(int(d.Round(time.Minute)/time.Minute), "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
