package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "message present", body: `{"message":"What is Go?"}`},
		{name: "empty message accepted", body: `{"message":""}`},
		{name: "missing message", body: `{}`, wantErr: true},
		{name: "null message", body: `{"message":null}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ChatRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			errs := Validate(&req)
			if tt.wantErr {
				assert.Equal(t, "failed on 'required' tag", errs["Message"])
				return
			}
			assert.Empty(t, errs)
		})
	}
}

func TestValidateStructValid(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}
	assert.Nil(t, ValidateStruct(sample{Name: "x"}))
	assert.Equal(t, map[string]string{"Name": "failed on 'required' tag"}, ValidateStruct(sample{}))
}
