package templates

import (
	"bytes"
	"text/template"
)

type WelcomeData struct {
	MenteeNickname string
	MentorNickname string
}

const welcomeText = `Hello {{.MenteeNickname}}!
I'm mentor {{.MentorNickname}}. Please enter your question.`

var welcomeTmpl = template.Must(template.New("welcome").Parse(welcomeText))

// RenderWelcome builds the greeting the mentor sends when a room is opened.
func RenderWelcome(data WelcomeData) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
