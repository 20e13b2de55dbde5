package tracker

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"regexp"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// ParseEmail extracts (project, context, update) for the tracker from an
// uploaded Outlook email. Only RFC 5322 .eml files are supported.
func ParseEmail(filename string, content []byte) (project, context, update string, err error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".eml") {
		return "", "", "", fmt.Errorf("unsupported email file type; expected .eml")
	}
	return parseEML(content)
}

func stripSubjectPrefix(subject string) string {
	trimmed := strings.TrimSpace(subject)
	lowered := strings.ToLower(trimmed)
	for _, prefix := range []string{"re:", "fw:", "fwd:"} {
		if strings.HasPrefix(lowered, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

func parseEML(content []byte) (project, context, update string, err error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", "", "", fmt.Errorf("parse email: %w", err)
	}

	subject := stripSubjectPrefix(msg.Header.Get("Subject"))
	sender := strings.TrimSpace(msg.Header.Get("From"))
	recipients := strings.TrimSpace(msg.Header.Get("To"))
	date := strings.TrimSpace(msg.Header.Get("Date"))

	body, err := extractBody(msg)
	if err != nil {
		return "", "", "", err
	}
	body = strings.TrimSpace(body)

	var parts []string
	if sender != "" {
		parts = append(parts, "From "+sender)
	}
	if recipients != "" {
		parts = append(parts, "to "+recipients)
	}
	if date != "" {
		parts = append(parts, "on "+date)
	}
	context = strings.Join(parts, ", ")
	if subject != "" {
		if context != "" {
			context = context + ": " + subject
		} else {
			context = subject
		}
	}

	update = body
	if update == "" {
		update = context
	}
	if update == "" {
		update = subject
	}
	return subject, context, update, nil
}

func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		data, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", fmt.Errorf("read email body: %w", err)
		}
		return string(data), nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("parse content type: %w", err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}
	if strings.HasPrefix(mediaType, "text/") {
		data, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", fmt.Errorf("read email body: %w", err)
		}
		if mediaType == "text/html" {
			return htmlTagRe.ReplaceAllString(string(data), ""), nil
		}
		return string(data), nil
	}
	return "", nil
}

// extractMultipartBody prefers a text/plain part, falling back to
// text/html with tags stripped.
func extractMultipartBody(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart email without boundary")
	}

	var htmlFallback string
	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read email part: %w", err)
		}

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			continue
		}
		switch partType {
		case "text/plain":
			return string(data), nil
		case "text/html":
			if htmlFallback == "" {
				htmlFallback = htmlTagRe.ReplaceAllString(string(data), "")
			}
		}
	}
	return htmlFallback, nil
}
