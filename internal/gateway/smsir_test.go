package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		out     string
		wantErr bool
	}{
		{"09121234567", "09121234567", false},
		{"+989121234567", "09121234567", false},
		{"9121234567", "", true},
		{"0912123456", "", true},
		{"00989121234567", "", true},
		{"not-a-phone", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPhone, tt.in)
		} else {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.out, got)
		}
	}
}

func TestSendBulk(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/bulk", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 1})
	}))
	defer srv.Close()

	client := NewSMSClient("key-1", "30007732", srv.URL)

	err := client.SendBulk(context.Background(), []string{"09121234567", "+989351234567"}, "hello")
	require.NoError(t, err)

	assert.Equal(t, "30007732", captured["lineNumber"])
	assert.Equal(t, "hello", captured["messageText"])
	// +98 numbers are rewritten before leaving the process
	assert.Equal(t, []interface{}{"09121234567", "09351234567"}, captured["mobiles"])
}

func TestSendValidation(t *testing.T) {
	client := NewSMSClient("key-1", "30007732", "http://localhost:0")

	err := client.Send(context.Background(), "09121234567", "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	err = client.Send(context.Background(), "12345", "hello")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestSendProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 0, "message": "insufficient credit"})
	}))
	defer srv.Close()

	client := NewSMSClient("key-1", "30007732", srv.URL)

	err := client.Send(context.Background(), "09121234567", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient credit")
}

func TestSendVerifyCode(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/verify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 1})
	}))
	defer srv.Close()

	client := NewSMSClient("key-1", "30007732", srv.URL)

	err := client.SendVerifyCode(context.Background(), "+989121234567", 100000, "123456")
	require.NoError(t, err)

	assert.Equal(t, "09121234567", captured["mobile"])
	assert.Equal(t, float64(100000), captured["templateId"])
	params, ok := captured["parameters"].([]interface{})
	require.True(t, ok)
	require.Len(t, params, 1)
	param := params[0].(map[string]interface{})
	assert.Equal(t, "code", param["name"])
	assert.Equal(t, "123456", param["value"])
}

func TestCredit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/credit", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 1, "data": 4250.5})
	}))
	defer srv.Close()

	client := NewSMSClient("key-1", "30007732", srv.URL)

	credit, err := client.Credit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4250.5, credit)
}
