package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/pkg/errs"
)

type body struct {
	RoomID string `json:"roomId"`
}

func newRequest(contentType, payload string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(payload))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		payload     string
		wantCode    int
		wantRoomID  string
	}{
		{name: "valid", contentType: "application/json", payload: `{"roomId":"lobby"}`, wantRoomID: "lobby"},
		{name: "charset suffix", contentType: "application/json; charset=utf-8", payload: `{"roomId":"a"}`, wantRoomID: "a"},
		{name: "wrong content type", contentType: "text/plain", payload: `{"roomId":"a"}`, wantCode: errs.ErrUnsupportedMediaType},
		{name: "syntax error", contentType: "application/json", payload: `{"roomId":`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "unknown field", contentType: "application/json", payload: `{"room":"a"}`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "trailing data", contentType: "application/json", payload: `{"roomId":"a"} {"roomId":"b"}`, wantCode: errs.ErrExtraContentInBody},
		{name: "too large", contentType: "application/json", payload: `{"roomId":"` + strings.Repeat("x", int(MaxJSONBodySize)) + `"}`, wantCode: errs.ErrRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst body
			customErr := BindJSON(httptest.NewRecorder(), newRequest(tt.contentType, tt.payload), &dst)

			if tt.wantCode != 0 {
				require.NotNil(t, customErr)
				assert.Equal(t, tt.wantCode, customErr.Code)
				return
			}

			require.Nil(t, customErr)
			assert.Equal(t, tt.wantRoomID, dst.RoomID)
		})
	}
}
