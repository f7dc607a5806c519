package mediaref_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoai-studio-backend/internal/mediaref"
)

func TestParse(t *testing.T) {
	t.Run("https url", func(t *testing.T) {
		ref, err := mediaref.Parse("https://cdn.test/clip.mp4")
		require.NoError(t, err)
		assert.Equal(t, mediaref.KindURL, ref.Kind)
		assert.Equal(t, "https://cdn.test/clip.mp4", ref.URL)
	})

	t.Run("data uri", func(t *testing.T) {
		ref, err := mediaref.Parse("data:video/mp4;base64,AAAA")
		require.NoError(t, err)
		assert.Equal(t, mediaref.KindDataURI, ref.Kind)
		assert.Equal(t, "video/mp4", ref.ContentType)
		assert.Equal(t, "AAAA", ref.Payload)
	})

	t.Run("bare base64", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte("hello media"))
		ref, err := mediaref.Parse(payload)
		require.NoError(t, err)
		assert.Equal(t, mediaref.KindBase64, ref.Kind)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := mediaref.Parse("definitely not media!!")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := mediaref.Parse("   ")
		assert.Error(t, err)
	})

	t.Run("data uri without base64 marker", func(t *testing.T) {
		_, err := mediaref.Parse("data:text/plain,hello")
		assert.Error(t, err)
	})
}

func TestResolve_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("raw video bytes"))
	}))
	defer server.Close()

	ref, err := mediaref.Parse(server.URL + "/clip.mp4")
	require.NoError(t, err)

	data, contentType, err := ref.Resolve(context.Background(), server.Client(), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "raw video bytes", string(data))
	assert.Equal(t, "video/mp4", contentType)
}

func TestResolve_URLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	ref, _ := mediaref.Parse(server.URL)
	_, _, err := ref.Resolve(context.Background(), server.Client(), "video/mp4")
	assert.Error(t, err)
}

func TestResolve_Base64(t *testing.T) {
	raw := []byte{0x00, 0x01, 0x02, 0xFF}
	ref := mediaref.Ref{Kind: mediaref.KindBase64, Payload: base64.StdEncoding.EncodeToString(raw)}

	data, contentType, err := ref.Resolve(context.Background(), http.DefaultClient, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "video/mp4", contentType)
}

func TestDataURI_RoundTrip(t *testing.T) {
	raw := []byte("frame data")
	uri := mediaref.DataURI("image/jpeg", raw)

	ref, err := mediaref.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, mediaref.KindDataURI, ref.Kind)

	data, contentType, err := ref.Resolve(context.Background(), http.DefaultClient, "")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "image/jpeg", contentType)
}
