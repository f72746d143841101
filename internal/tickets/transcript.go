package tickets

import (
	"html/template"
	"strings"
	"time"
)

type TranscriptMessage struct {
	AuthorID    string
	AuthorName  string
	Content     string
	Timestamp   time.Time
	Attachments []string
}

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Transcript of #{{.Channel}}</title>
<style>
body { font-family: sans-serif; background: #313338; color: #dbdee1; margin: 0; padding: 1rem; }
.message { padding: 0.4rem 0; border-bottom: 1px solid #3f4147; }
.author { font-weight: bold; color: #f2f3f5; }
.time { color: #949ba4; font-size: 0.8rem; margin-left: 0.5rem; }
.attachment a { color: #00a8fc; }
</style>
</head>
<body>
<h2>#{{.Channel}}</h2>
{{range .Messages}}<div class="message">
<span class="author">{{.AuthorName}}</span><span class="time">{{.Timestamp.Format "2006-01-02 15:04:05"}}</span>
<div class="content">{{.Content}}</div>
{{range .Attachments}}<div class="attachment"><a href="{{.}}">{{.}}</a></div>
{{end}}</div>
{{end}}</body>
</html>
`))

// RenderTranscript produces a standalone HTML document of a ticket's
// history. Content is template-escaped so message text cannot inject
// markup into the transcript.
func RenderTranscript(channelName string, messages []TranscriptMessage) (string, error) {
	var b strings.Builder
	err := transcriptTemplate.Execute(&b, struct {
		Channel  string
		Messages []TranscriptMessage
	}{Channel: channelName, Messages: messages})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
