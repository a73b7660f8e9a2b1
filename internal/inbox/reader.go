package inbox

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dealflow/server/internal/models"

	"github.com/sirupsen/logrus"
)

// ProcessedDir is where handled files are moved, inside the inbox
const ProcessedDir = "processed"

// Message is an email read from the inbox together with its file
type Message struct {
	Email *models.Email
	Path  string
}

// Reader picks deal emails up from a drop directory. Files ending in .eml
// are parsed as RFC 5322 messages; .txt files are taken as a plain body.
type Reader struct {
	dir    string
	logger *logrus.Logger
}

func NewReader(dir string, logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Reader{dir: dir, logger: logger}
}

func (r *Reader) Dir() string {
	return r.dir
}

// Fetch reads every pending message in file name order. Files that cannot
// be parsed are logged and left in place.
func (r *Reader) Fetch() ([]Message, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var messages []Message
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".eml" && ext != ".txt" {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		email, err := ReadFile(path)
		if err != nil {
			r.logger.WithError(err).WithField("file", path).Warn("Skipping unreadable email")
			continue
		}
		messages = append(messages, Message{Email: email, Path: path})
	}
	return messages, nil
}

// MarkProcessed moves a handled file out of the inbox
func (r *Reader) MarkProcessed(path string) error {
	done := filepath.Join(r.dir, ProcessedDir)
	if err := os.MkdirAll(done, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	if err := os.Rename(path, filepath.Join(done, filepath.Base(path))); err != nil {
		return fmt.Errorf("failed to move %s: %w", path, err)
	}
	return nil
}

// ReadFile parses one .eml or .txt file into an email. The file name,
// without extension, is the email ID unless the message carries a
// Message-ID header.
func ReadFile(path string) (*models.Email, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	email := &models.Email{
		ID:         id,
		Subject:    id,
		ReceivedAt: info.ModTime().UTC(),
	}

	if strings.EqualFold(filepath.Ext(base), ".txt") {
		email.Body = strings.TrimSpace(string(data))
		return email, nil
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	decoder := new(mime.WordDecoder)
	if subject, err := decoder.DecodeHeader(msg.Header.Get("Subject")); err == nil && subject != "" {
		email.Subject = subject
	}
	if from, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		email.Sender = from.Address
	} else {
		email.Sender = msg.Header.Get("From")
	}
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date.UTC()
	}
	if messageID := strings.Trim(msg.Header.Get("Message-ID"), "<> "); messageID != "" {
		email.ID = messageID
	}

	body, err := textBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", path, err)
	}
	email.Body = strings.TrimSpace(body)
	return email, nil
}

// textBody returns the first text/plain part of a message, or the whole
// body when it is not multipart.
func textBody(contentType string, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(body)
		return string(data), err
	}

	reader := multipart.NewReader(body, params["boundary"])
	var fallback string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return fallback, nil
		}
		if err != nil {
			return "", err
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case partType == "text/plain":
			data, err := io.ReadAll(part)
			return string(data), err
		case strings.HasPrefix(partType, "multipart/"):
			nested, err := textBody(part.Header.Get("Content-Type"), part)
			if err != nil {
				return "", err
			}
			if nested != "" {
				return nested, nil
			}
		case partType == "text/html" && fallback == "":
			data, err := io.ReadAll(part)
			if err != nil {
				return "", err
			}
			fallback = string(data)
		}
	}
}
