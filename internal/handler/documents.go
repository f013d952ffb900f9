package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxUploadSize caps CSV and backup uploads.
const maxUploadSize = 10 << 20

var downloadClient = &http.Client{Timeout: 30 * time.Second}

// hasExtension reports whether the uploaded document name ends with one of exts.
func hasExtension(doc *tgbotapi.Document, exts ...string) bool {
	if doc == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// downloadDocument fetches an uploaded file from Telegram's file storage.
func (h *Handler) downloadDocument(ctx context.Context, doc *tgbotapi.Document) (*bytes.Reader, error) {
	if doc.FileSize > maxUploadSize {
		return nil, fmt.Errorf("arquivo muito grande (máximo %d MB)", maxUploadSize>>20)
	}

	url, err := h.client.Bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter arquivo: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao baixar arquivo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erro ao baixar arquivo: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("arquivo muito grande (máximo %d MB)", maxUploadSize>>20)
	}
	return bytes.NewReader(data), nil
}

// sendFile uploads an in-memory file to the chat.
func (h *Handler) sendFile(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := h.client.Bot.Send(doc)
	return err
}
