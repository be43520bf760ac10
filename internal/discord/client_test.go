package discord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, 2*time.Second, zap.NewNop())
}

func TestClient_Send(t *testing.T) {
	embedPayload := models.NotificationPayload{
		Embeds: []models.Embed{{Title: "🔵 ABC hit $10 [execution]", Description: "body", Color: 0x3498db}},
	}

	t.Run("json embed", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var got map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.NotContains(t, got, "content")
			embeds := got["embeds"].([]interface{})
			assert.Len(t, embeds, 1)
			assert.Equal(t, "🔵 ABC hit $10 [execution]", embeds[0].(map[string]interface{})["title"])

			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Send(context.Background(), embedPayload))
	})

	t.Run("multipart with attachment", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G'}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Contains(t, r.FormValue("payload_json"), `"url":"attachment://chart.png"`)

			file, header, err := r.FormFile("files[0]")
			if assert.NoError(t, err) {
				defer file.Close()
				assert.Equal(t, "chart.png", header.Filename)
				assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
				data, _ := io.ReadAll(file)
				assert.Equal(t, png, data)
			}
			w.WriteHeader(http.StatusOK)
		})

		payload := embedPayload
		payload.Embeds = []models.Embed{embedPayload.Embeds[0]}
		payload.Embeds[0].Image = &models.EmbedImage{URL: "attachment://chart.png"}
		payload.Attachment = &models.Attachment{Filename: "chart.png", ContentType: "image/png", Data: png}

		require.NoError(t, client.Send(context.Background(), payload))
	})

	t.Run("non-success status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Invalid Form Body"}`))
		})

		err := client.Send(context.Background(), embedPayload)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
		assert.Contains(t, statusErr.Body, "Invalid Form Body")
	})

	t.Run("transport error", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1/webhook", 500*time.Millisecond, zap.NewNop())
		assert.Error(t, client.Send(context.Background(), embedPayload))
	})
}

func TestClient_Send_content(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, map[string]interface{}{"content": "hello"}, got)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Send(context.Background(), models.NotificationPayload{Content: "hello"}))
}
