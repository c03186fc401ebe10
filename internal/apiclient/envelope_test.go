package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantData    string
		wantMessage string
		wantFailed  bool
		wantErr     bool
	}{
		{name: "standard envelope", body: `{"success":true,"message":"ok","data":{"id":"D1"}}`, wantData: `{"id":"D1"}`, wantMessage: "ok"},
		{name: "top level payload", body: `{"id":"D1","fullName":"Dr. Who"}`, wantData: `{"id":"D1","fullName":"Dr. Who"}`},
		{name: "array payload", body: `[{"id":"A1"}]`, wantData: `[{"id":"A1"}]`},
		{name: "nested data is kept as is", body: `{"data":{"data":{"id":"X"}}}`, wantData: `{"data":{"id":"X"}}`},
		{name: "explicit failure", body: `{"success":false,"message":"nope"}`, wantFailed: true, wantMessage: "nope", wantData: `{"success":false,"message":"nope"}`},
		{name: "empty body", body: ``, wantData: ``},
		{name: "invalid json", body: `{"data":`, wantErr: true},
		{name: "success not boolean", body: `{"success":"yes","data":1}`, wantErr: true},
		{name: "message not string", body: `{"success":true,"message":123,"data":1}`, wantErr: true},
		{name: "error not string", body: `{"success":false,"error":{"code":7}}`, wantErr: true},
		{name: "null message", body: `{"success":true,"message":null,"data":1}`, wantData: `1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(env.Data))
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Equal(t, tt.wantFailed, env.Failed())
		})
	}
}

func TestDecode(t *testing.T) {
	type doctor struct {
		ID string `json:"id"`
	}

	got, err := Decode[doctor](Envelope{Data: []byte(`{"id":"D1"}`)})
	require.NoError(t, err)
	assert.Equal(t, "D1", got.ID)

	got, err = Decode[doctor](Envelope{Data: []byte(`null`)})
	require.NoError(t, err)
	assert.Equal(t, doctor{}, got)

	_, err = Decode[doctor](Envelope{Data: []byte(`[1,2]`)})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
